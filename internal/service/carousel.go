package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/cache"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/events"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/objectstore"
)

const CarouselCacheKey = "carousel:v1"

type CarouselService struct {
	Repo     *repo.GormRepo
	Cache    cache.Cache
	CacheTTL time.Duration
	Events   events.Publisher
	Store    objectstore.Store
}

// List returns the active images in display order.
func (s *CarouselService) List(ctx context.Context) ([]models.CarouselImage, error) {
	l := logging.FromContext(ctx).With("svc", "carousel.list")

	var cached []models.CarouselImage
	if s.Cache != nil {
		hit, err := s.Cache.GetJSON(ctx, CarouselCacheKey, &cached)
		if err != nil {
			l.Warn("cache_read_failed", "key", CarouselCacheKey, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	images, err := s.Repo.ListCarousel(ctx, true)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, CarouselCacheKey, images, s.CacheTTL); err != nil {
			l.Warn("cache_write_failed", "key", CarouselCacheKey, "error", err)
		}
	}
	return images, nil
}

func (s *CarouselService) ListAll(ctx context.Context) ([]models.CarouselImage, error) {
	return s.Repo.ListCarousel(ctx, false)
}

func checkLink(field, v string) error {
	if v == "" {
		return nil
	}
	u, err := url.Parse(v)
	if err != nil {
		return validation("invalid %s", field)
	}
	if u.Scheme == "" && strings.HasPrefix(v, "/") {
		return nil
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation("%s must be an http(s) URL or a site path", field)
	}
	return nil
}

// Create appends an image that is hosted elsewhere.
func (s *CarouselService) Create(ctx context.Context, req transport.CreateCarouselRequest) (*models.CarouselImage, error) {
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		return nil, validation("image_url required")
	}
	if err := checkLink("image_url", imageURL); err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return s.create(ctx, &models.CarouselImage{
		ImageURL: imageURL,
		Title:    strings.TrimSpace(req.Title),
		LinkURL:  strings.TrimSpace(req.LinkURL),
		Active:   active,
	})
}

// Upload stores the file in the object store and appends it.
func (s *CarouselService) Upload(ctx context.Context, title, linkURL, filename, contentType string, r io.Reader, size int64) (*models.CarouselImage, error) {
	if s.Store == nil {
		return nil, validation("image uploads are disabled")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, validation("file must be an image")
	}
	linkURL = strings.TrimSpace(linkURL)
	if err := checkLink("link_url", linkURL); err != nil {
		return nil, err
	}

	obj, err := s.Store.Put(ctx, objectstore.PrefixCarousel, filename, contentType, r, size)
	if err != nil {
		return nil, fmt.Errorf("upload carousel image: %w", err)
	}
	img, err := s.create(ctx, &models.CarouselImage{
		ImageURL:  obj.URL,
		ObjectKey: obj.Key,
		Title:     strings.TrimSpace(title),
		LinkURL:   linkURL,
		Active:    true,
	})
	if err != nil {
		removeObject(ctx, s.Store, obj.Key)
		return nil, err
	}
	return img, nil
}

func (s *CarouselService) create(ctx context.Context, img *models.CarouselImage) (*models.CarouselImage, error) {
	if err := checkLink("link_url", img.LinkURL); err != nil {
		return nil, err
	}
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		pos, err := tx.NextCarouselPosition(ctx)
		if err != nil {
			return err
		}
		img.Position = pos
		return tx.CreateCarouselImage(ctx, img)
	})
	if err != nil {
		return nil, translate(err, "create carousel image")
	}
	s.changed(ctx, img.ID, "carousel_image_created")
	return img, nil
}

func (s *CarouselService) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCarouselRequest) (*models.CarouselImage, error) {
	img, err := s.Repo.GetCarouselImage(ctx, id)
	if err != nil {
		return nil, translate(err, "carousel image")
	}
	if req.Title != nil {
		img.Title = strings.TrimSpace(*req.Title)
	}
	if req.LinkURL != nil {
		link := strings.TrimSpace(*req.LinkURL)
		if err := checkLink("link_url", link); err != nil {
			return nil, err
		}
		img.LinkURL = link
	}
	if req.Active != nil {
		img.Active = *req.Active
	}
	if err := s.Repo.SaveCarouselImage(ctx, img); err != nil {
		return nil, translate(err, "update carousel image")
	}
	s.changed(ctx, img.ID, "carousel_image_updated")
	return img, nil
}

// Delete removes the image, closes the gap in positions and drops the
// uploaded file if there was one.
func (s *CarouselService) Delete(ctx context.Context, id uuid.UUID) error {
	var key string
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		img, err := tx.GetCarouselImage(ctx, id)
		if err != nil {
			return err
		}
		key = img.ObjectKey
		if err := tx.DeleteCarouselImage(ctx, id); err != nil {
			return err
		}
		rest, err := tx.ListCarouselForUpdate(ctx)
		if err != nil {
			return err
		}
		return tx.SetCarouselPositions(ctx, imageIDs(rest))
	})
	if err != nil {
		return translate(err, "carousel image")
	}
	removeObject(ctx, s.Store, key)
	s.changed(ctx, id, "carousel_image_deleted")
	return nil
}

// Move takes the image out of its slot and inserts it at index to, then
// rewrites every position. expected, when given, must equal the current order.
func (s *CarouselService) Move(ctx context.Context, id uuid.UUID, to int, expected []uuid.UUID) ([]models.CarouselImage, error) {
	return s.rewrite(ctx, expected, func(current []uuid.UUID) ([]uuid.UUID, error) {
		from := indexOf(current, id)
		if from < 0 {
			return nil, fmt.Errorf("carousel image: %w", ErrNotFound)
		}
		if to < 0 || to >= len(current) {
			return nil, validation("to must be between 0 and %d", len(current)-1)
		}
		return Splice(current, from, to), nil
	})
}

// Reorder applies a full ordering, which must be a permutation of the current images.
func (s *CarouselService) Reorder(ctx context.Context, ids, expected []uuid.UUID) ([]models.CarouselImage, error) {
	return s.rewrite(ctx, expected, func(current []uuid.UUID) ([]uuid.UUID, error) {
		if !samePermutation(current, ids) {
			return nil, validation("ids must list every carousel image exactly once")
		}
		return ids, nil
	})
}

func (s *CarouselService) rewrite(ctx context.Context, expected []uuid.UUID, order func(current []uuid.UUID) ([]uuid.UUID, error)) ([]models.CarouselImage, error) {
	l := logging.FromContext(ctx).With("svc", "carousel.reorder")

	var result []models.CarouselImage
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		images, err := tx.ListCarouselForUpdate(ctx)
		if err != nil {
			return err
		}
		current := imageIDs(images)
		if expected != nil && !equalIDs(current, expected) {
			return &ConflictError{Reason: "carousel order changed", Current: images}
		}
		next, err := order(current)
		if err != nil {
			return err
		}
		if err := tx.SetCarouselPositions(ctx, next); err != nil {
			return err
		}
		result, err = tx.ListCarousel(ctx, false)
		return err
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			l.Warn("carousel_reorder_conflict", "status", 409, "reason", conflict.Reason)
			return nil, err
		}
		return nil, translate(err, "carousel")
	}

	s.changed(ctx, uuid.Nil, "carousel_reordered")
	return result, nil
}

// Splice moves the element at from to index to, shifting the ones in between.
func Splice(ids []uuid.UUID, from, to int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	moved := ids[from]
	for i, id := range ids {
		if i != from {
			out = append(out, id)
		}
	}
	out = append(out, uuid.Nil)
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

func imageIDs(images []models.CarouselImage) []uuid.UUID {
	out := make([]uuid.UUID, len(images))
	for i, img := range images {
		out[i] = img.ID
	}
	return out
}

func indexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func equalIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func samePermutation(current, ids []uuid.UUID) bool {
	if len(current) != len(ids) {
		return false
	}
	seen := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		seen[id] = false
	}
	for _, id := range ids {
		used, ok := seen[id]
		if !ok || used {
			return false
		}
		seen[id] = true
	}
	return true
}

func (s *CarouselService) changed(ctx context.Context, id uuid.UUID, typ string) {
	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, CarouselCacheKey); err != nil {
			logging.FromContext(ctx).Warn("cache_invalidate_failed", "key", CarouselCacheKey, "error", err)
		}
	}
	data := map[string]any{}
	key := "carousel"
	if id != uuid.Nil {
		data["id"] = id.String()
		key = id.String()
	}
	publish(ctx, s.Events, events.TopicCarousel, key, typ, data)
}
