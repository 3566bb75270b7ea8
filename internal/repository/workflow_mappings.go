package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

// GetWorkflowMapping 查询某主体的审批路由配置，没有配置时返回 sql.ErrNoRows。
func (r *Repository) GetWorkflowMapping(subjectKind domain.MappingSubjectKind, subjectUserID int64) (*domain.ApprovalWorkflowMapping, error) {
	query := `
		SELECT id, approver_user_id, approver_role
		FROM approval_workflow_mappings
		WHERE subject_kind = $1 AND subject_user_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	mapping := &domain.ApprovalWorkflowMapping{
		SubjectKind:   subjectKind,
		SubjectUserID: subjectUserID,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, subjectKind, subjectUserID).Scan(&mapping.ID, &mapping.ApproverUserID, &mapping.ApproverRole); err != nil {
		return nil, err
	}

	return mapping, nil
}

func (r *Repository) CreateWorkflowMapping(mapping *domain.ApprovalWorkflowMapping) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO approval_workflow_mappings (subject_kind, subject_user_id, approver_user_id, approver_role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	args := []any{mapping.SubjectKind, mapping.SubjectUserID, mapping.ApproverUserID, mapping.ApproverRole}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&mapping.ID); err != nil {
		return err
	}

	return nil
}
