// internal/app/features/groups/groupimages.go
package groups

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxImageUploadBytes = 10 << 20 // 10 MiB per file

// HandleUploadImages replaces a group's cover and/or thumbnail image.
// Admin only. Either file field may be omitted to keep the current image.
func (h *Handler) HandleUploadImages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	group, ok := h.loadGroupForAdmin(w, r, ctx)
	if !ok {
		return
	}
	if h.Storage == nil {
		h.ErrLog.LogServerError(w, r, "image upload without storage configured", nil,
			"Image uploads are not available.", "/groups/"+group.Slug+"/edit")
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse multipart form failed", err, "Invalid upload.", "/groups/"+group.Slug+"/edit")
		return
	}

	coverPath := group.CoverPath
	thumbPath := group.ThumbnailPath
	var replaced []string

	if path, uploaded, err := h.storeImage(ctx, group.Slug, r, "cover"); err != nil {
		h.ErrLog.LogBadRequest(w, r, "cover upload failed", err, "Could not store the cover image.", "/groups/"+group.Slug+"/edit")
		return
	} else if uploaded {
		if coverPath != "" {
			replaced = append(replaced, coverPath)
		}
		coverPath = path
	}

	if path, uploaded, err := h.storeImage(ctx, group.Slug, r, "thumbnail"); err != nil {
		h.ErrLog.LogBadRequest(w, r, "thumbnail upload failed", err, "Could not store the thumbnail image.", "/groups/"+group.Slug+"/edit")
		return
	} else if uploaded {
		if thumbPath != "" {
			replaced = append(replaced, thumbPath)
		}
		thumbPath = path
	}

	if err := h.Groups.SetImages(ctx, group.ID, coverPath, thumbPath); err != nil {
		h.ErrLog.LogServerError(w, r, "database error saving image paths", err, "Failed to save images.", "/groups/"+group.Slug+"/edit")
		return
	}

	// Old files are removed only after the new paths are saved.
	for _, old := range replaced {
		if err := h.Storage.Delete(ctx, old); err != nil {
			h.Log.Warn("failed to delete replaced group image",
				zap.Error(err),
				zap.String("path", old))
		}
	}

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}

// storeImage saves one uploaded image field. uploaded=false means the field
// was absent from the form.
func (h *Handler) storeImage(ctx context.Context, slug string, r *http.Request, field string) (path string, uploaded bool, err error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer file.Close()

	contentType, err := sniffImageType(file, header)
	if err != nil {
		return "", false, err
	}

	now := time.Now().UTC()
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(header.Filename))
	path = fmt.Sprintf("groups/%s/%04d/%02d/%s", slug, now.Year(), now.Month(), name)

	opts := &storage.PutOptions{ContentType: contentType}
	if err := h.Storage.Put(ctx, path, file, opts); err != nil {
		return "", false, fmt.Errorf("failed to upload image: %w", err)
	}
	return path, true, nil
}

// sniffImageType checks the upload really is an image and returns its MIME type.
func sniffImageType(file multipart.File, header *multipart.FileHeader) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	contentType := http.DetectContentType(buf[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %q for %q", contentType, header.Filename)
	}
	return contentType, nil
}

// sanitizeFilename removes or replaces characters that could be problematic
// in storage paths.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "image"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
