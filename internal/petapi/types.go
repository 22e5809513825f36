package petapi

// Foto is the attachment metadata returned by the photo endpoints.
type Foto struct {
	ID          int64  `json:"id"`
	Nome        string `json:"nome"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// Pet is an animal record.
type Pet struct {
	ID    int64  `json:"id,omitempty"`
	Nome  string `json:"nome"`
	Raca  string `json:"raca"`
	Idade int    `json:"idade"`
	Foto  *Foto  `json:"foto,omitempty"`
}

// EntityID implements state.Entity.
func (p Pet) EntityID() int64 { return p.ID }

// Tutor is a responsible party.
type Tutor struct {
	ID       int64  `json:"id,omitempty"`
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone"`
	Endereco string `json:"endereco"`
	CPF      int64  `json:"cpf"`
	Foto     *Foto  `json:"foto,omitempty"`
}

// EntityID implements state.Entity.
func (t Tutor) EntityID() int64 { return t.ID }

// PetDetail is a pet with summaries of its tutors, as returned by GET /v1/pets/{id}.
type PetDetail struct {
	Pet
	Tutores []Tutor `json:"tutores,omitempty"`
}

// EntityID implements state.Entity.
func (d PetDetail) EntityID() int64 { return d.ID }

// TutorDetail is a tutor with summaries of their pets.
type TutorDetail struct {
	Tutor
	Pets []Pet `json:"pets,omitempty"`
}

// EntityID implements state.Entity.
func (d TutorDetail) EntityID() int64 { return d.ID }

// Page mirrors the paginated list envelope.
type Page[T any] struct {
	Content   []T `json:"content"`
	Page      int `json:"page"`
	Size      int `json:"size"`
	Total     int `json:"total"`
	PageCount int `json:"pageCount"`
}

// ListQuery configures list requests. An empty Nome is not sent.
type ListQuery struct {
	Page int
	Size int
	Nome string
}
