package controllers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/shiplist-backend/api/responses"
	"github.com/angelmondragon/shiplist-backend/internal/importer"
	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

const maxImportBytes = 10 << 20

type rowsImporter interface {
	ImportRows(ctx context.Context, actor outbox.ActorRef, source string, rows []shipments.ImportRow) (*shipments.ImportResult, error)
}

type importResponse struct {
	*shipments.ImportResult
	Skipped []importer.LineError `json:"skipped"`
}

// ImportRows appends a CSV shipment list to the production list. The file is
// sent either as multipart field "file" or as the raw request body.
func ImportRows(svc rowsImporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts, err := importOptions(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		body, source, err := importBody(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer body.Close()

		parsed, err := importer.Read(body, opts)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "import file too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable import file").
				WithDetails(map[string]any{"error": err.Error()}))
			return
		}
		if len(parsed.Rows) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "import file has no valid rows").
				WithDetails(map[string]any{"skipped": parsed.Skipped}))
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"import_source":  source,
				"import_rows":    len(parsed.Rows),
				"import_skipped": len(parsed.Skipped),
			})
			logg.Info(ctx, "import parsed")
		}

		result, err := svc.ImportRows(r.Context(), actor, source, parsed.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skipped := parsed.Skipped
		if skipped == nil {
			skipped = []importer.LineError{}
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, importResponse{ImportResult: result, Skipped: skipped})
	}
}

func importOptions(r *http.Request) (importer.Options, error) {
	opts := importer.Options{Encoding: importer.EncodingUTF8}
	if raw := strings.TrimSpace(r.URL.Query().Get("encoding")); raw != "" {
		enc, err := importer.ParseEncoding(raw)
		if err != nil {
			return opts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported encoding").
				WithDetails(map[string]any{"field": "encoding"})
		}
		opts.Encoding = enc
	}
	if raw := r.URL.Query().Get("delimiter"); raw != "" {
		if raw == `\t` || raw == "tab" {
			raw = "\t"
		}
		if utf8.RuneCountInString(raw) != 1 {
			return opts, pkgerrors.New(pkgerrors.CodeValidation, "delimiter must be a single character").
				WithDetails(map[string]any{"field": "delimiter"})
		}
		opts.Delimiter, _ = utf8.DecodeRuneInString(raw)
	}
	return opts, nil
}

func importBody(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		source := strings.TrimSpace(r.URL.Query().Get("source"))
		if source == "" {
			source = "upload"
		}
		return r.Body, source, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart field \"file\" is required")
	}
	return file, filepath.Base(header.Filename), nil
}
