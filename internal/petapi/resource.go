package petapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// Resource is the accessor for one record collection. T is the list/summary
// shape and D the detail shape.
type Resource[T, D any] struct {
	c    *Client
	path string
	name string
}

func (r *Resource[T, D]) itemPath(id int64, rest ...string) *url.URL {
	parts := append([]string{r.path, strconv.FormatInt(id, 10)}, rest...)
	return &url.URL{Path: strings.Join(parts, "/")}
}

// List fetches one page. Page and size are always sent; nome only when set.
func (r *Resource[T, D]) List(ctx context.Context, q ListQuery) (Page[T], error) {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("size", strconv.Itoa(q.Size))
	if nome := strings.TrimSpace(q.Nome); nome != "" {
		values.Set("nome", nome)
	}
	var payload Page[T]
	rel := &url.URL{Path: r.path, RawQuery: values.Encode()}
	if err := r.c.do(ctx, "list "+r.name+"s", request{method: http.MethodGet, rel: rel}, &payload); err != nil {
		return Page[T]{}, err
	}
	return payload, nil
}

// Get fetches the detail record for id.
func (r *Resource[T, D]) Get(ctx context.Context, id int64) (D, error) {
	var payload D
	err := r.c.do(ctx, fmt.Sprintf("get %s %d", r.name, id), request{method: http.MethodGet, rel: r.itemPath(id)}, &payload)
	return payload, err
}

// Create posts payload; the service assigns the id.
func (r *Resource[T, D]) Create(ctx context.Context, payload T) (T, error) {
	return r.write(ctx, "create "+r.name, http.MethodPost, &url.URL{Path: r.path}, payload)
}

// Update replaces the record at id with payload.
func (r *Resource[T, D]) Update(ctx context.Context, id int64, payload T) (T, error) {
	return r.write(ctx, fmt.Sprintf("update %s %d", r.name, id), http.MethodPut, r.itemPath(id), payload)
}

func (r *Resource[T, D]) write(ctx context.Context, op, method string, rel *url.URL, payload T) (T, error) {
	var out T
	body, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("%s: marshal: %w", op, err)
	}
	err = r.c.do(ctx, op, request{
		method:      method,
		rel:         rel,
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, &out)
	return out, err
}

// Delete removes the record at id and returns the service's message.
func (r *Resource[T, D]) Delete(ctx context.Context, id int64) (string, error) {
	return r.c.doMessage(ctx, fmt.Sprintf("delete %s %d", r.name, id), request{method: http.MethodDelete, rel: r.itemPath(id)})
}

// UploadPhoto sends content as the multipart field "foto".
func (r *Resource[T, D]) UploadPhoto(ctx context.Context, id int64, filename string, content io.Reader) (Foto, error) {
	op := fmt.Sprintf("upload %s %d photo", r.name, id)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("foto", filepath.Base(filename))
	if err != nil {
		return Foto{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Foto{}, fmt.Errorf("%s: read file: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return Foto{}, fmt.Errorf("%s: %w", op, err)
	}

	var foto Foto
	err = r.c.do(ctx, op, request{
		method:      http.MethodPost,
		rel:         r.itemPath(id, "fotos"),
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &foto)
	return foto, err
}

// DeletePhoto removes attachment fotoID from record id.
func (r *Resource[T, D]) DeletePhoto(ctx context.Context, id, fotoID int64) error {
	op := fmt.Sprintf("delete %s %d photo %d", r.name, id, fotoID)
	return r.c.do(ctx, op, request{
		method: http.MethodDelete,
		rel:    r.itemPath(id, "fotos", strconv.FormatInt(fotoID, 10)),
	}, nil)
}

// TutorResource adds the pet link endpoints to the tutor accessor.
type TutorResource struct {
	*Resource[Tutor, TutorDetail]
}

// LinkPet associates petID with tutorID.
func (r *TutorResource) LinkPet(ctx context.Context, tutorID, petID int64) (string, error) {
	return r.c.doMessage(ctx, fmt.Sprintf("link tutor %d pet %d", tutorID, petID), request{
		method: http.MethodPost,
		rel:    r.itemPath(tutorID, "pets", strconv.FormatInt(petID, 10)),
	})
}

// UnlinkPet removes the association between tutorID and petID.
func (r *TutorResource) UnlinkPet(ctx context.Context, tutorID, petID int64) (string, error) {
	return r.c.doMessage(ctx, fmt.Sprintf("unlink tutor %d pet %d", tutorID, petID), request{
		method: http.MethodDelete,
		rel:    r.itemPath(tutorID, "pets", strconv.FormatInt(petID, 10)),
	})
}
