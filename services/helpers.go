package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/storage"
)

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// storeError keeps known repository sentinels and wraps everything else as
// ErrStoreUnavailable.
func storeError(op string, err error, known ...error) error {
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func mapCandidateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCandidateNotFound):
		return ErrCandidateNotFound
	case errors.Is(err, repositories.ErrCandidateKeyConflict):
		return ErrCandidateKeyConflict
	case errors.Is(err, repositories.ErrCandidateWorldcupGone):
		return ErrWorldcupNotFound
	}
	return err
}

func populateCandidateURL(c *models.Candidate, images storage.ImageStore) {
	if c == nil || c.ImageKey == "" || images == nil {
		return
	}
	if url := images.GetPublicURL(c.ImageKey); url != "" {
		c.ImageURL = &url
	}
}

func populateCandidateURLs(candidates []models.Candidate, images storage.ImageStore) {
	for i := range candidates {
		populateCandidateURL(&candidates[i], images)
	}
}

func populateWorldcupThumbnail(w *models.Worldcup, images storage.ImageStore) {
	if w == nil || w.ThumbnailKey == "" || images == nil {
		return
	}
	if url := images.GetPublicURL(w.ThumbnailKey); url != "" {
		w.ThumbnailURL = &url
	}
}

func validateCandidateInputs(inputs []CandidateInput) error {
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("%w: candidate #%d has no name", ErrValidationFailed, i+1)
		}
		if strings.TrimSpace(in.Key) == "" {
			return fmt.Errorf("%w: candidate #%d has no image key", ErrValidationFailed, i+1)
		}
		if _, dup := seen[in.Key]; dup {
			return fmt.Errorf("%w: image key %q is used twice", ErrValidationFailed, in.Key)
		}
		seen[in.Key] = struct{}{}
	}
	return nil
}
