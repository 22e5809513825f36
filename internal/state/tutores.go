package state

import (
	"context"

	"github.com/five82/petdesk/internal/petapi"
)

// Linker is the tutor-only half of the remote accessor.
type Linker interface {
	LinkPet(ctx context.Context, tutorID, petID int64) (string, error)
	UnlinkPet(ctx context.Context, tutorID, petID int64) (string, error)
}

// TutorAccessor is satisfied by *petapi.TutorResource.
type TutorAccessor interface {
	Accessor[petapi.Tutor, petapi.TutorDetail]
	Linker
}

// TutorCollection adds pet linking to the tutor collection. Link and unlink
// only move status; the related lists are re-established by fetching the
// detail again.
type TutorCollection struct {
	*Collection[petapi.Tutor, petapi.TutorDetail]
	linker Linker
}

// NewTutorCollection builds the tutor collection over accessor.
func NewTutorCollection(accessor TutorAccessor, opts ...Option) *TutorCollection {
	return &TutorCollection{
		Collection: NewCollection[petapi.Tutor, petapi.TutorDetail]("tutores", accessor, opts...),
		linker:     accessor,
	}
}

// NewPetCollection builds the pet collection over accessor.
func NewPetCollection(accessor Accessor[petapi.Pet, petapi.PetDetail], opts ...Option) *Collection[petapi.Pet, petapi.PetDetail] {
	return NewCollection[petapi.Pet, petapi.PetDetail]("pets", accessor, opts...)
}

// LinkPet associates petID with tutorID.
func (c *TutorCollection) LinkPet(ctx context.Context, tutorID, petID int64) (string, error) {
	c.begin(OpLink)
	msg, err := c.linker.LinkPet(ctx, tutorID, petID)
	return msg, c.finish(ctx, OpLink, err)
}

// UnlinkPet removes the association between tutorID and petID.
func (c *TutorCollection) UnlinkPet(ctx context.Context, tutorID, petID int64) (string, error) {
	c.begin(OpUnlink)
	msg, err := c.linker.UnlinkPet(ctx, tutorID, petID)
	return msg, c.finish(ctx, OpUnlink, err)
}
