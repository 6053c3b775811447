package coredata

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store owns all durable reads and writes for states, batches, and core
// data rows. Every ingest or publish is one transaction: either the whole
// batch (rows plus metadata edits) commits, or nothing does.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&State{}, &Batch{}, &CoreData{})
}

// GetState returns the state for a two-letter code.
func (s *Store) GetState(code string) (State, error) {
	var st State
	err := s.db.First(&st, "state = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return State{}, fmt.Errorf("%w: %s", ErrStateNotFound, code)
	}
	if err != nil {
		return State{}, err
	}
	return st, nil
}

// ListStates returns all known states ordered by code.
func (s *Store) ListStates() ([]State, error) {
	var states []State
	if err := s.db.Order("state asc").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

// UpsertState creates the state on first reference and applies the edit in
// place. The change is visible to all subsequent derived-field reads with
// no other bookkeeping.
func (s *Store) UpsertState(edit StateEdit) (State, error) {
	var st State
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return upsertStateTx(tx, edit, &st)
	})
	if err != nil {
		return State{}, err
	}
	return st, nil
}

func upsertStateTx(tx *gorm.DB, edit StateEdit, out *State) error {
	var st State
	err := tx.First(&st, "state = ?", edit.Code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = State{State: edit.Code}
		if err := tx.Create(&st).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if len(edit.Updates) > 0 {
		if err := tx.Model(&st).Updates(edit.Updates).Error; err != nil {
			return err
		}
	}
	if err := tx.First(&st, "state = ?", edit.Code).Error; err != nil {
		return err
	}
	if out != nil {
		*out = st
	}
	return nil
}

// statesByCode loads the registry for attaching derived values to rows.
func (s *Store) statesByCode() (map[string]State, error) {
	states, err := s.ListStates()
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]State, len(states))
	for _, st := range states {
		byCode[st.State] = st
	}
	return byCode, nil
}

// ListBatches returns every batch, oldest first, with rows attached.
func (s *Store) ListBatches() ([]Batch, error) {
	var batches []Batch
	err := s.db.Preload("CoreData", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("core_data.state asc, core_data.date asc")
	}).Order("batch_id asc").Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// GetBatch returns one batch with rows attached.
func (s *Store) GetBatch(id int64) (Batch, error) {
	var b Batch
	err := s.db.Preload("CoreData").First(&b, "batch_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Batch{}, fmt.Errorf("%w: %d", ErrBatchNotFound, id)
	}
	if err != nil {
		return Batch{}, err
	}
	return b, nil
}

// CreateBatch persists a new batch, its rows, and any state edits as one
// unit of work. When publish is set the batch commits already published, so
// a revision lands as the current row with no second call.
func (s *Store) CreateBatch(b *Batch, rows []CoreData, edits []StateEdit, publish bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
		if publish {
			now := time.Now().UTC()
			b.IsPublished = true
			b.PublishedAt = &now
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}

		for _, edit := range edits {
			if err := upsertStateTx(tx, edit, nil); err != nil {
				return err
			}
		}

		if len(rows) > 0 {
			for i := range rows {
				rows[i].BatchID = b.BatchID
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		b.CoreData = rows
		return nil
	})
}

// PublishBatch flips a draft batch to published. The guard on is_published
// serializes racing publishers in the database: exactly one caller wins,
// every other one gets ErrAlreadyPublished.
func (s *Store) PublishBatch(id int64) (Batch, error) {
	now := time.Now().UTC()
	res := s.db.Model(&Batch{}).
		Where("batch_id = ? AND is_published = ?", id, false).
		Updates(map[string]any{"is_published": true, "published_at": now})
	if res.Error != nil {
		return Batch{}, res.Error
	}

	if res.RowsAffected == 0 {
		var b Batch
		err := s.db.First(&b, "batch_id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Batch{}, fmt.Errorf("%w: %d", ErrBatchNotFound, id)
		}
		if err != nil {
			return Batch{}, err
		}
		return b, fmt.Errorf("%w: %d", ErrAlreadyPublished, id)
	}

	return s.GetBatch(id)
}

// AnyExistingRows reports whether any published row exists for the cell.
// Draft batches never count; the moment a batch publishes, its rows do.
func (s *Store) AnyExistingRows(state, date string) (bool, error) {
	var count int64
	err := s.db.Model(&CoreData{}).
		Joins("JOIN batches ON batches.batch_id = core_data.batch_id").
		Where("batches.is_published = ?", true).
		Where("core_data.state = ? AND core_data.date = ?", state, date).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// History returns every row ever recorded for the cell, across published
// and draft batches alike, most recent batch first.
func (s *Store) History(state, date string) ([]CoreData, error) {
	var rows []CoreData
	err := s.db.Model(&CoreData{}).
		Select("core_data.*").
		Joins("JOIN batches ON batches.batch_id = core_data.batch_id").
		Where("core_data.state = ? AND core_data.date = ?", state, date).
		Order("core_data.batch_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Current resolves the single effective row for (state, date): the row from
// the most recently created published batch containing that cell. Batch id
// is the canonical total order; ids are assigned monotonically at creation,
// so the id tie-breaks batches published at the same instant. An empty date
// means the latest date with any published data for the state.
func (s *Store) Current(state, date string) (CoreData, error) {
	if date == "" {
		var latest *string
		err := s.db.Model(&CoreData{}).
			Select("MAX(core_data.date)").
			Joins("JOIN batches ON batches.batch_id = core_data.batch_id").
			Where("batches.is_published = ?", true).
			Where("core_data.state = ?", state).
			Scan(&latest).Error
		if err != nil {
			return CoreData{}, err
		}
		if latest == nil {
			return CoreData{}, fmt.Errorf("%w: state %s", ErrNoDataFound, state)
		}
		date = *latest
	}

	var rows []CoreData
	err := s.db.Model(&CoreData{}).
		Select("core_data.*").
		Joins("JOIN batches ON batches.batch_id = core_data.batch_id").
		Where("batches.is_published = ?", true).
		Where("core_data.state = ? AND core_data.date = ?", state, date).
		Order("core_data.batch_id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return CoreData{}, err
	}
	if len(rows) == 0 {
		return CoreData{}, fmt.Errorf("%w: state %s date %s", ErrNoDataFound, state, date)
	}
	return rows[0], nil
}

// StatesDaily returns the effective row for every (state, date) cell with
// data, newest date first. With preview set, rows from still-draft batches
// are included and the latest batch wins regardless of publish status.
// An empty state means all states.
func (s *Store) StatesDaily(state string, preview bool) ([]CoreData, error) {
	q := s.db.Model(&CoreData{}).
		Select("core_data.*").
		Joins("JOIN batches ON batches.batch_id = core_data.batch_id")

	if state != "" {
		q = q.Where("core_data.state = ?", state)
	}

	if preview {
		q = q.Where(`core_data.batch_id = (
			SELECT MAX(c2.batch_id) FROM core_data c2
			WHERE c2.state = core_data.state AND c2.date = core_data.date)`)
	} else {
		q = q.Where("batches.is_published = ?", true).
			Where(`core_data.batch_id = (
			SELECT MAX(c2.batch_id) FROM core_data c2
			JOIN batches b2 ON b2.batch_id = c2.batch_id
			WHERE c2.state = core_data.state AND c2.date = core_data.date
			AND b2.is_published = ?)`, true)
	}

	var rows []CoreData
	if err := q.Order("core_data.date DESC, core_data.state ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
