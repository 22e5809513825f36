// Package petapi provides the typed accessors for the pet manager REST API.
//
// # Overview
//
// Two record collections are exposed, pets and tutores, through one generic
// Resource type parameterised by the list shape and the detail shape:
//
//	client.Pets    *Resource[Pet, PetDetail]
//	client.Tutores *TutorResource   // Resource[Tutor, TutorDetail] + link/unlink
//
// # Endpoints
//
//   - GET    /v1/{pets|tutores}?page&size&nome     -> Page[T]
//   - GET    /v1/{pets|tutores}/{id}               -> detail with related summaries
//   - POST   /v1/{pets|tutores}                    -> created entity
//   - PUT    /v1/{pets|tutores}/{id}               -> updated entity
//   - DELETE /v1/{pets|tutores}/{id}               -> message
//   - POST   /v1/{pets|tutores}/{id}/fotos         -> Foto (multipart field "foto")
//   - DELETE /v1/{pets|tutores}/{id}/fotos/{fotoId}
//   - POST   /v1/tutores/{tutorId}/pets/{petId}    -> message
//   - DELETE /v1/tutores/{tutorId}/pets/{petId}    -> message
//
// # Authentication
//
// The package never touches credentials. Construct the Client with an
// http.Client whose Transport is the request pipeline (package transport),
// which attaches the bearer token and handles renewal.
//
// # Errors
//
// Every error is passed through apperr.Classify, so callers can test with
// errors.Is against apperr.ErrNotFound, apperr.ErrValidationRejected,
// apperr.ErrRemoteUnavailable and apperr.ErrSessionExpired. A 401 that
// survives the pipeline is returned as an *apperr.HTTPError.
package petapi
