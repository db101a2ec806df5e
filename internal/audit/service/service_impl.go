package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vendaria/trustcore/internal/audit/domain"
	"github.com/vendaria/trustcore/internal/clock"
	"github.com/vendaria/trustcore/internal/redaction"
	"github.com/vendaria/trustcore/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type ServiceImpl struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &ServiceImpl{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// AuditLog appends a record. Metadata is passed through the redaction
// engine before it is persisted so PII never lands in the log table.
func (s *ServiceImpl) AuditLog(ctx context.Context, tenantID *string, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return domain.ErrInvalidAction
	}
	if actorType == "" {
		actorType = domain.ActorTypeSystem
	}

	var meta datatypes.JSONMap
	if metadata != nil {
		meta = datatypes.JSONMap(redaction.RedactObject(metadata))
	}

	entry := &domain.AuditLog{
		ID:         s.genID.Generate(),
		TenantID:   tenantID,
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   meta,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Error("failed to append audit log",
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *ServiceImpl) List(ctx context.Context, req domain.ListAuditLogRequest) (domain.ListAuditLogResponse, error) {
	resp := domain.ListAuditLogResponse{AuditLogs: []domain.AuditLog{}}

	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		return resp, domain.ErrInvalidTenant
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 50
	}

	filter := domain.ListFilter{
		TenantID:   tenantID,
		Action:     req.Action,
		TargetType: req.TargetType,
		Limit:      int(limit),
	}

	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return resp, domain.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return resp, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return resp, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.AuditCursor{
			ID:        snowflake.ID(id),
			CreatedAt: createdAt,
		}
	}

	logs, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return resp, err
	}

	pageInfo := pagination.BuildCursorPageInfo(logs, limit, func(entry *domain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        strconv.FormatInt(int64(entry.ID), 10),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	if len(logs) > int(limit) {
		logs = logs[:limit]
	}
	for _, entry := range logs {
		resp.AuditLogs = append(resp.AuditLogs, *entry)
	}
	resp.PageInfo = *pageInfo
	return resp, nil
}
