package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-social-cache/model"
	"github.com/uptrace/bun"
)

// NoticeRepository persists notices.
type NoticeRepository interface {
	InsertNotice(ctx context.Context, n *model.Notice) error
	ListNotices(ctx context.Context, typ model.NoticeType, addressee model.UserID, paging model.Paging) ([]*model.Notice, error)
}

// Notices stores notifications in the notices table.
type Notices struct {
	db bun.IDB
}

var _ NoticeRepository = (*Notices)(nil)

// NewNotices returns a notice repository over db.
func NewNotices(db bun.IDB) *Notices {
	return &Notices{db: db}
}

// InsertNotice stores n and sets CreatedAt when it is zero.
func (s *Notices) InsertNotice(ctx context.Context, n *model.Notice) error {
	if !n.Type.Valid() {
		return fmt.Errorf("insert notice %d: invalid type %d", n.ID, n.Type)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(n).Exec(ctx); err != nil {
		return fmt.Errorf("insert notice %d: %w", n.ID, err)
	}
	return nil
}

// ListNotices returns addressee's notices of typ, newest first.
func (s *Notices) ListNotices(ctx context.Context, typ model.NoticeType, addressee model.UserID, paging model.Paging) ([]*model.Notice, error) {
	notices := make([]*model.Notice, 0, paging.Size())
	err := s.db.NewSelect().
		Model(&notices).
		Where("n.notice_type = ?", typ).
		Where("n.addressee_id = ?", addressee).
		OrderExpr("n.create_time DESC, n.id DESC").
		Limit(paging.Size()).
		Offset(paging.Offset()).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list %s notices of %d: %w", typ, addressee, err)
	}
	return notices, nil
}
