package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/search"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/cache"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/events"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/objectstore"
)

const (
	CatalogCacheKey = "catalog:v1"

	searchLimit = 50
)

// ProductIndex is an external full-text index kept in sync with the catalog.
type ProductIndex interface {
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Reindex(ctx context.Context, products []models.Product) error
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Cache    cache.Cache
	CacheTTL time.Duration
	Events   events.Publisher
	Index    ProductIndex
	Store    objectstore.Store
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	return p, translate(err, "product")
}

func (s *CatalogService) GetProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, f, offset, limit)
}

func (s *CatalogService) ListGroups(ctx context.Context) ([]models.ProductGroup, error) {
	return s.Repo.ListGroups(ctx)
}

// Catalog returns the storefront: every group with its available products,
// followed by a section for available products without a group.
func (s *CatalogService) Catalog(ctx context.Context) (*transport.CatalogResponse, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.catalog")

	var cached transport.CatalogResponse
	if s.Cache != nil {
		hit, err := s.Cache.GetJSON(ctx, CatalogCacheKey, &cached)
		if err != nil {
			l.Warn("cache_read_failed", "key", CatalogCacheKey, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	groups, err := s.Repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.Repo.ListProducts(ctx, repo.ProductFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}

	byGroup := make(map[uuid.UUID][]models.Product, len(groups))
	var ungrouped []models.Product
	for _, p := range products {
		if p.GroupID == nil {
			ungrouped = append(ungrouped, p)
			continue
		}
		byGroup[*p.GroupID] = append(byGroup[*p.GroupID], p)
	}

	resp := &transport.CatalogResponse{Sections: make([]transport.CatalogSection, 0, len(groups)+1)}
	for i := range groups {
		items := byGroup[groups[i].ID]
		if items == nil {
			items = []models.Product{}
		}
		resp.Sections = append(resp.Sections, transport.CatalogSection{Group: &groups[i], Products: items})
	}
	if len(ungrouped) > 0 {
		resp.Sections = append(resp.Sections, transport.CatalogSection{Products: ungrouped})
	}

	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, CatalogCacheKey, resp, s.CacheTTL); err != nil {
			l.Warn("cache_write_failed", "key", CatalogCacheKey, "error", err)
		}
	}
	return resp, nil
}

// Search matches available products by name and description. The external
// index is preferred; when it is absent or failing the database is filtered
// in process.
func (s *CatalogService) Search(ctx context.Context, query string) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")
	query = strings.TrimSpace(query)

	if query != "" && s.Index != nil {
		found, err := s.Index.Search(ctx, query, searchLimit)
		if err == nil {
			return s.current(ctx, found)
		}
		l.Warn("index_search_failed", "reason", "falling back to database", "error", err)
	}

	products, err := s.Repo.ListProducts(ctx, repo.ProductFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}
	return search.Filter(products, query), nil
}

// current swaps index hits for the stored rows, keeping the hit order and
// dropping products that were deleted or made unavailable since indexing.
func (s *CatalogService) current(ctx context.Context, hits []models.Product) ([]models.Product, error) {
	if len(hits) == 0 {
		return []models.Product{}, nil
	}
	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	rows, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(hits))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Available {
			out = append(out, p)
		}
	}
	return out, nil
}

// Reindex pushes every stored product to the search index. It runs at boot so
// products written while the index was disabled become searchable.
func (s *CatalogService) Reindex(ctx context.Context) error {
	if s.Index == nil {
		return nil
	}
	products, err := s.Repo.ListProducts(ctx, repo.ProductFilter{})
	if err != nil {
		return err
	}
	if err := s.Index.Reindex(ctx, products); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("index_rebuilt", "products", len(products))
	return nil
}

func (s *CatalogService) CreateGroup(ctx context.Context, req transport.CreateGroupRequest) (*models.ProductGroup, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation("group name required")
	}
	g := &models.ProductGroup{Name: name, Description: strings.TrimSpace(req.Description), Position: req.Position}
	if err := s.Repo.CreateGroup(ctx, g); err != nil {
		return nil, translate(err, "create group")
	}
	s.catalogChanged(ctx, events.TopicGroups, g.ID, "group_created", map[string]any{"name": g.Name})
	return g, nil
}

func (s *CatalogService) UpdateGroup(ctx context.Context, id uuid.UUID, req transport.UpdateGroupRequest) (*models.ProductGroup, error) {
	g, err := s.Repo.GetGroup(ctx, id)
	if err != nil {
		return nil, translate(err, "group")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validation("group name cannot be empty")
		}
		g.Name = name
	}
	if req.Description != nil {
		g.Description = strings.TrimSpace(*req.Description)
	}
	if req.Position != nil {
		g.Position = *req.Position
	}
	if err := s.Repo.SaveGroup(ctx, g); err != nil {
		return nil, translate(err, "update group")
	}
	s.catalogChanged(ctx, events.TopicGroups, g.ID, "group_updated", map[string]any{"name": g.Name})
	return g, nil
}

// DeleteGroup removes the group; its products become ungrouped and are
// reindexed without the group.
func (s *CatalogService) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	members, err := s.Repo.ListProducts(ctx, repo.ProductFilter{GroupID: &id})
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteGroup(ctx, id); err != nil {
		return translate(err, "group")
	}
	if s.Index != nil && len(members) > 0 {
		for i := range members {
			members[i].GroupID = nil
		}
		if err := s.Index.Reindex(ctx, members); err != nil {
			logging.FromContext(ctx).Error("index_sync_failed", "group_id", id, "error", err)
		}
	}
	s.catalogChanged(ctx, events.TopicGroups, id, "group_deleted", nil)
	return nil
}

func (s *CatalogService) checkGroup(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.Repo.GetGroup(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validation("unknown group %s", id)
		}
		return err
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation("product name required")
	}
	if req.Price < 0 {
		return nil, validation("price cannot be negative")
	}
	if err := s.checkGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	p := &models.Product{
		GroupID:     req.GroupID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Available:   available,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, translate(err, "create product")
	}

	s.syncIndex(ctx, p)
	s.catalogChanged(ctx, events.TopicProducts, p.ID, "product_created", map[string]any{"name": p.Name, "price": p.Price})
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validation("product name cannot be empty")
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, validation("price cannot be negative")
		}
		p.Price = *req.Price
	}
	var staleKey string
	if req.ImageURL != nil {
		if url := strings.TrimSpace(*req.ImageURL); url != p.ImageURL {
			p.ImageURL = url
			staleKey, p.ObjectKey = p.ObjectKey, ""
		}
	}
	if req.Available != nil {
		p.Available = *req.Available
	}
	if req.GroupID != nil {
		if *req.GroupID == "" {
			p.GroupID = nil
		} else {
			gid, err := uuid.Parse(*req.GroupID)
			if err != nil {
				return nil, validation("invalid group_id")
			}
			if err := s.checkGroup(ctx, &gid); err != nil {
				return nil, err
			}
			p.GroupID = &gid
		}
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, translate(err, "update product")
	}
	removeObject(ctx, s.Store, staleKey)

	s.syncIndex(ctx, p)
	s.catalogChanged(ctx, events.TopicProducts, p.ID, "product_updated", map[string]any{"name": p.Name, "price": p.Price, "available": p.Available})
	return p, nil
}

// DeleteProduct removes the product and its uploaded image, if any.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return translate(err, "product")
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return translate(err, "product")
	}
	removeObject(ctx, s.Store, p.ObjectKey)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Error("index_delete_failed", "product_id", id, "error", err)
		}
	}
	s.catalogChanged(ctx, events.TopicProducts, id, "product_deleted", nil)
	return nil
}

// UploadProductImage stores the file and points the product at it. The
// previously uploaded file is removed once the product is saved.
func (s *CatalogService) UploadProductImage(ctx context.Context, id uuid.UUID, filename, contentType string, r io.Reader, size int64) (*models.Product, error) {
	if s.Store == nil {
		return nil, validation("image uploads are disabled")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, validation("file must be an image")
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}

	obj, err := s.Store.Put(ctx, objectstore.PrefixProducts, filename, contentType, r, size)
	if err != nil {
		return nil, fmt.Errorf("upload product image: %w", err)
	}
	previous := p.ObjectKey
	p.ImageURL, p.ObjectKey = obj.URL, obj.Key
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		removeObject(ctx, s.Store, obj.Key)
		return nil, translate(err, "update product")
	}
	removeObject(ctx, s.Store, previous)

	s.syncIndex(ctx, p)
	s.catalogChanged(ctx, events.TopicProducts, p.ID, "product_updated", map[string]any{"image_url": p.ImageURL})
	return p, nil
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("index_sync_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) catalogChanged(ctx context.Context, topic string, id uuid.UUID, typ string, data map[string]any) {
	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, CatalogCacheKey); err != nil {
			logging.FromContext(ctx).Warn("cache_invalidate_failed", "key", CatalogCacheKey, "error", err)
		}
	}
	if data == nil {
		data = map[string]any{}
	}
	data["id"] = id.String()
	publish(ctx, s.Events, topic, id.String(), typ, data)
}
