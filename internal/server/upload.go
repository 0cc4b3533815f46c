package server

import (
	"archive/zip"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// maxUploadBytes caps a single export upload.
const maxUploadBytes = 100 << 20

// handleUpload accepts a CSV or ZIP export, stores it under the data
// directory, ingests it and processes the new tickets in one call.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	switch name := strings.ToLower(header.Filename); {
	case strings.HasSuffix(name, ".csv"):
		err = saveUpload(file, filepath.Join(s.dataDir, filepath.Base(header.Filename)))
	case strings.HasSuffix(name, ".zip"):
		err = s.extractArchive(file, header.Size)
	default:
		s.respondError(w, http.StatusBadRequest, errors.New("only .csv and .zip files are supported"))
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("export uploaded", zap.String("file", header.Filename))

	counts, err := s.seeder.SeedFromDir(r.Context(), s.dataDir)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	results, err := s.batch.Run(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"ingested_counts": counts,
		"processed": map[string]int{
			"total":      len(results),
			"successful": len(results) - failed,
			"failed":     failed,
		},
	})
}

// extractArchive flattens an export archive: CSVs land in the data
// directory, images in its images/ subdirectory. macOS metadata
// entries are skipped.
func (s *Server) extractArchive(file io.ReaderAt, size int64) error {
	zr, err := zip.NewReader(file, size)
	if err != nil {
		return err
	}
	imageDir := filepath.Join(s.dataDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return err
	}

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		base := filepath.Base(entry.Name)
		if strings.HasPrefix(base, "._") || base == ".DS_Store" {
			continue
		}

		var dest string
		switch strings.ToLower(filepath.Ext(base)) {
		case ".csv":
			dest = filepath.Join(s.dataDir, base)
		case ".png", ".jpg", ".jpeg", ".gif", ".webp":
			dest = filepath.Join(imageDir, base)
		default:
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return err
		}
		err = saveUpload(rc, dest)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func saveUpload(src io.Reader, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
