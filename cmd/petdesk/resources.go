package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/petdesk/internal/app"
	"github.com/five82/petdesk/internal/petapi"
	"github.com/five82/petdesk/internal/state"
)

// collectionOf picks one collection out of a wired App.
type collectionOf[T, D state.Entity] func(*app.App) *state.Collection[T, D]

func newPetsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pets",
		Short: "List and edit pets",
	}
	addResourceCommands[petapi.Pet, petapi.PetDetail](cmd, opts, "pet", func(a *app.App) *state.Collection[petapi.Pet, petapi.PetDetail] {
		return a.Pets
	})
	return cmd
}

func newTutoresCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutores",
		Short: "List and edit tutores and their pets",
	}
	addResourceCommands[petapi.Tutor, petapi.TutorDetail](cmd, opts, "tutor", func(a *app.App) *state.Collection[petapi.Tutor, petapi.TutorDetail] {
		return a.Tutores.Collection
	})
	cmd.AddCommand(
		newLinkCmd(opts, "link", "Link a pet to a tutor", (*state.TutorCollection).LinkPet),
		newLinkCmd(opts, "unlink", "Unlink a pet from a tutor", (*state.TutorCollection).UnlinkPet),
	)
	return cmd
}

func addResourceCommands[T, D state.Entity](parent *cobra.Command, opts *globalOptions, noun string, pick collectionOf[T, D]) {
	parent.AddCommand(
		newListCmd(opts, pick),
		newGetCmd(opts, noun, pick),
		newWriteCmd(opts, noun, pick, false),
		newWriteCmd(opts, noun, pick, true),
		newDeleteCmd(opts, noun, pick),
		newUploadPhotoCmd(opts, noun, pick),
		newDeletePhotoCmd(opts, noun, pick),
	)
}

func newListCmd[T, D state.Entity](opts *globalOptions, pick collectionOf[T, D]) *cobra.Command {
	var (
		page int
		size int
		nome string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page, optionally filtered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openAuthenticated()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if size <= 0 {
				size = a.Config.PageSize
			}
			c := pick(a)
			if err := c.List(cmd.Context(), page, size, nome); err != nil {
				return err
			}
			snap := c.Snapshot()
			return writeJSON(cmd.OutOrStdout(), listOutput[T]{
				Items:     snap.Items,
				Page:      snap.Pagination.Page,
				Size:      snap.Pagination.Size,
				Total:     snap.Pagination.Total,
				PageCount: snap.Pagination.PageCount,
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page number")
	cmd.Flags().IntVar(&size, "size", 0, "page size (default from config)")
	cmd.Flags().StringVar(&nome, "nome", "", "filter by name")
	return cmd
}

type listOutput[T any] struct {
	Items     []T `json:"content"`
	Page      int `json:"page"`
	Size      int `json:"size"`
	Total     int `json:"total"`
	PageCount int `json:"pageCount"`
}

func newGetCmd[T, D state.Entity](opts *globalOptions, noun string, pick collectionOf[T, D]) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + noun + " with its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(noun, args[0])
			if err != nil {
				return err
			}
			a, err := opts.openAuthenticated()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			c := pick(a)
			if err := c.FetchOne(cmd.Context(), id); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c.Snapshot().Current)
		},
	}
}

// newWriteCmd builds create, or update when update is set. The payload is a
// JSON document given with --data, or read from stdin when --data is "-".
func newWriteCmd[T, D state.Entity](opts *globalOptions, noun string, pick collectionOf[T, D], update bool) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + noun + " from a JSON payload",
		Args:  cobra.NoArgs,
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Replace a " + noun + " with a JSON payload"
		cmd.Args = cobra.ExactArgs(1)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var id int64
		if update {
			var err error
			if id, err = parseID(noun, args[0]); err != nil {
				return err
			}
		}
		payload, err := decodePayload[T](cmd.InOrStdin(), data)
		if err != nil {
			return err
		}
		a, err := opts.openAuthenticated()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		c := pick(a)
		var saved T
		if update {
			saved, err = c.Update(cmd.Context(), id, payload)
		} else {
			saved, err = c.Create(cmd.Context(), payload)
		}
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), saved)
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", `JSON payload, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newDeleteCmd[T, D state.Entity](opts *globalOptions, noun string, pick collectionOf[T, D]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(noun, args[0])
			if err != nil {
				return err
			}
			a, err := opts.openAuthenticated()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			msg, err := pick(a).Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), msg, fmt.Sprintf("Deleted %s %d", noun, id))
			return nil
		},
	}
}

func newUploadPhotoCmd[T, D state.Entity](opts *globalOptions, noun string, pick collectionOf[T, D]) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-photo <id> <file>",
		Short: "Attach a photo to a " + noun,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(noun, args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open photo: %w", err)
			}
			defer func() { _ = f.Close() }()

			a, err := opts.openAuthenticated()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			foto, err := pick(a).UploadAttachment(cmd.Context(), id, filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), foto)
		},
	}
}

func newDeletePhotoCmd[T, D state.Entity](opts *globalOptions, noun string, pick collectionOf[T, D]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-photo <id> <foto-id>",
		Short: "Remove a photo from a " + noun,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(noun, args[0])
			if err != nil {
				return err
			}
			fotoID, err := parseID("foto", args[1])
			if err != nil {
				return err
			}
			a, err := opts.openAuthenticated()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := pick(a).DeleteAttachment(cmd.Context(), id, fotoID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed foto %d from %s %d\n", fotoID, noun, id)
			return nil
		},
	}
}

type linkFunc func(c *state.TutorCollection, ctx context.Context, tutorID, petID int64) (string, error)

func newLinkCmd(opts *globalOptions, use, short string, link linkFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tutor-id> <pet-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tutorID, err := parseID("tutor", args[0])
			if err != nil {
				return err
			}
			petID, err := parseID("pet", args[1])
			if err != nil {
				return err
			}
			a, err := opts.openAuthenticated()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			msg, err := link(a.Tutores, cmd.Context(), tutorID, petID)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), msg, fmt.Sprintf("%s: tutor %d, pet %d", use, tutorID, petID))
			return nil
		},
	}
}

func parseID(noun, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", noun, raw)
	}
	return id, nil
}

func decodePayload[T any](stdin io.Reader, data string) (T, error) {
	var v T
	raw := []byte(data)
	if data == "-" {
		var err error
		if raw, err = io.ReadAll(stdin); err != nil {
			return v, fmt.Errorf("read payload: %w", err)
		}
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMessage(w io.Writer, msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	fmt.Fprintln(w, msg)
}
