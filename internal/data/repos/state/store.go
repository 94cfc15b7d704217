package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

const (
	KeyMaterials   = "materials"
	KeyGroups      = "groups"
	KeyAssignments = "assignments"
	KeySettings    = "settings"
)

// Collection is one whole collection serialized as JSON under its key.
type Collection struct {
	Key       string         `gorm:"column:collection_key;primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;not null" json:"value"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Collection) TableName() string { return "state_collection" }

// Store persists the four coordinator collections. Every write replaces the
// whole collection; callers serialize read-modify-write sequences themselves.
type Store interface {
	Materials(ctx context.Context) ([]types.Material, error)
	PutMaterials(ctx context.Context, materials []types.Material) error
	Groups(ctx context.Context) ([]types.CarouselGroup, error)
	PutGroups(ctx context.Context, groups []types.CarouselGroup) error
	Assignments(ctx context.Context) ([]types.Assignment, error)
	PutAssignments(ctx context.Context, assignments []types.Assignment) error
	Settings(ctx context.Context) (types.Settings, error)
	PutSettings(ctx context.Context, settings types.Settings) error
}

// raw is the key/blob primitive both backends implement.
type raw interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	put(ctx context.Context, key string, value []byte) error
}

type typedStore struct {
	raw raw
}

func getSlice[T any](ctx context.Context, r raw, key string) ([]T, error) {
	b, ok, err := r.get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	out := []T{}
	if !ok || len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func putValue(ctx context.Context, r raw, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.put(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s typedStore) Materials(ctx context.Context) ([]types.Material, error) {
	return getSlice[types.Material](ctx, s.raw, KeyMaterials)
}

func (s typedStore) PutMaterials(ctx context.Context, materials []types.Material) error {
	if materials == nil {
		materials = []types.Material{}
	}
	return putValue(ctx, s.raw, KeyMaterials, materials)
}

func (s typedStore) Groups(ctx context.Context) ([]types.CarouselGroup, error) {
	groups, err := getSlice[types.CarouselGroup](ctx, s.raw, KeyGroups)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Materials == nil {
			groups[i].Materials = []types.Material{}
		}
	}
	return groups, nil
}

func (s typedStore) PutGroups(ctx context.Context, groups []types.CarouselGroup) error {
	if groups == nil {
		groups = []types.CarouselGroup{}
	}
	return putValue(ctx, s.raw, KeyGroups, groups)
}

func (s typedStore) Assignments(ctx context.Context) ([]types.Assignment, error) {
	return getSlice[types.Assignment](ctx, s.raw, KeyAssignments)
}

func (s typedStore) PutAssignments(ctx context.Context, assignments []types.Assignment) error {
	if assignments == nil {
		assignments = []types.Assignment{}
	}
	return putValue(ctx, s.raw, KeyAssignments, assignments)
}

func (s typedStore) Settings(ctx context.Context) (types.Settings, error) {
	b, ok, err := s.raw.get(ctx, KeySettings)
	if err != nil {
		return types.Settings{}, fmt.Errorf("read %s: %w", KeySettings, err)
	}
	if !ok || len(b) == 0 {
		return types.DefaultSettings(), nil
	}
	var out types.Settings
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Settings{}, fmt.Errorf("decode %s: %w", KeySettings, err)
	}
	return out, nil
}

func (s typedStore) PutSettings(ctx context.Context, settings types.Settings) error {
	return putValue(ctx, s.raw, KeySettings, settings)
}

type gormRaw struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGormStore backs the collections with the state_collection table.
func NewGormStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return typedStore{raw: &gormRaw{db: db, log: baseLog.With("repo", "StateStore")}}
}

func (r *gormRaw) get(ctx context.Context, key string) ([]byte, bool, error) {
	var row Collection
	err := r.db.WithContext(ctx).Where("collection_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Value), true, nil
}

func (r *gormRaw) put(ctx context.Context, key string, value []byte) error {
	row := Collection{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		r.log.Warn("State write failed", "key", key, "error", err)
	}
	return err
}
