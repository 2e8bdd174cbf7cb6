package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptloom/promptloom/internal/domain"
	"github.com/promptloom/promptloom/internal/infra/database/models"
)

// SchemaVersion is written alongside every snapshot. The original format had
// no version field; it starts at 1 here so later migrations have something
// to dispatch on.
const SchemaVersion = 1

const schemaVersionKey = "schema_version"

// SnapshotRepository persists the whole collection as ordered rows. Save
// replaces the stored snapshot in one transaction; Load restores it in
// collection order.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Load(ctx context.Context) ([]domain.Record, error) {
	var meta models.SchemaMeta
	err := r.db.WithContext(ctx).
		Where("key = ?", schemaVersionKey).
		Take(&meta).Error
	if err == nil {
		version, convErr := strconv.Atoi(meta.Value)
		if convErr != nil || version > SchemaVersion {
			return nil, fmt.Errorf("unsupported snapshot schema version %q", meta.Value)
		}
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var rows []models.Record
	if err := r.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		record, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, records []domain.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&models.SchemaMeta{
			Key:   schemaVersionKey,
			Value: strconv.Itoa(SchemaVersion),
		}).Error
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(records))
		for i, record := range records {
			row, err := toRow(record, int64(i))
			if err != nil {
				return err
			}
			ids = append(ids, row.ID)

			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}

		if len(ids) == 0 {
			return tx.Where("1 = 1").Delete(&models.Record{}).Error
		}
		return tx.Where("id NOT IN ?", ids).Delete(&models.Record{}).Error
	})
}

func toRow(record domain.Record, position int64) (models.Record, error) {
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return models.Record{}, err
	}

	children := record.ChildImageIDs
	if children == nil {
		children = []string{}
	}
	childrenJSON, err := json.Marshal(children)
	if err != nil {
		return models.Record{}, err
	}

	var settings *string
	if record.AISettings != nil {
		payload, err := json.Marshal(record.AISettings)
		if err != nil {
			return models.Record{}, err
		}
		s := string(payload)
		settings = &s
	}

	var parent *string
	if record.ParentImageID != "" {
		p := record.ParentImageID
		parent = &p
	}

	return models.Record{
		ID:            record.ID,
		Position:      position,
		URL:           record.URL,
		Title:         record.Title,
		Description:   record.Description,
		Tags:          string(tagsJSON),
		AIPrompt:      record.AIPrompt,
		AIModel:       record.AIModel,
		AISettings:    settings,
		UploadDate:    record.UploadDate,
		Likes:         record.Likes,
		UserID:        record.UserID,
		ParentImageID: parent,
		ChildImageIDs: string(childrenJSON),
		IsPlaceholder: record.IsPlaceholder,
	}, nil
}

func fromRow(row models.Record) (domain.Record, error) {
	var tags []string
	if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
		return domain.Record{}, err
	}

	var children []string
	if err := json.Unmarshal([]byte(row.ChildImageIDs), &children); err != nil {
		return domain.Record{}, err
	}

	var settings *domain.AISettings
	if row.AISettings != nil {
		settings = &domain.AISettings{}
		if err := json.Unmarshal([]byte(*row.AISettings), settings); err != nil {
			return domain.Record{}, err
		}
	}

	parent := ""
	if row.ParentImageID != nil {
		parent = *row.ParentImageID
	}

	return domain.Record{
		ID:            row.ID,
		URL:           row.URL,
		Title:         row.Title,
		Description:   row.Description,
		Tags:          tags,
		AIPrompt:      row.AIPrompt,
		AIModel:       row.AIModel,
		AISettings:    settings,
		UploadDate:    row.UploadDate,
		Likes:         row.Likes,
		UserID:        row.UserID,
		ParentImageID: parent,
		ChildImageIDs: children,
		IsPlaceholder: row.IsPlaceholder,
	}, nil
}
