package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/repositories"
	"go.uber.org/zap"
)

var complaintColumns = []string{
	"id", "title", "description", "category", "priority", "status",
	"student_id", "student_name", "room", "block",
	"assigned_admin_id", "admin_response",
	"created_at", "updated_at", "resolved_at",
}

// ComplaintRepository implements the repositories.ComplaintRepository interface
type ComplaintRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *DB, logger *zap.Logger) repositories.ComplaintRepository {
	return &ComplaintRepository{
		db:     db,
		logger: logger,
	}
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func selectComplaints() squirrel.SelectBuilder {
	return psql().Select(complaintColumns...).From("complaints")
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	c := &models.Complaint{}
	var (
		assigned      uuid.NullUUID
		adminResponse sql.NullString
		resolvedAt    sql.NullTime
	)
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.Priority,
		&c.Status,
		&c.StudentID,
		&c.StudentName,
		&c.Room,
		&c.Block,
		&assigned,
		&adminResponse,
		&c.CreatedAt,
		&c.UpdatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if assigned.Valid {
		id := assigned.UUID
		c.AssignedAdminID = &id
	}
	if adminResponse.Valid {
		s := adminResponse.String
		c.AdminResponse = &s
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return c, nil
}

// Create creates a new complaint
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	query, args, err := psql().Insert("complaints").
		Columns(complaintColumns...).
		Values(
			c.ID, c.Title, c.Description, c.Category, c.Priority, c.Status,
			c.StudentID, c.StudentName, c.Room, c.Block,
			c.AssignedAdminID, c.AdminResponse,
			c.CreatedAt, c.UpdatedAt, c.ResolvedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return translateError("failed to create complaint", err)
	}

	r.logger.Debug("complaint created",
		zap.String("id", c.ID.String()),
		zap.String("student_id", c.StudentID.String()))
	return nil
}

// GetByID retrieves a complaint by ID
func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	query, args, err := selectComplaints().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	c, err := scanComplaint(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translateError(fmt.Sprintf("complaint %s", id), err)
	}
	return c, nil
}

// likeEscaper makes LIKE metacharacters in user input match literally.
// Postgres uses backslash as the default LIKE escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applyFilter narrows a select by every non-zero filter field
func applyFilter(b squirrel.SelectBuilder, f models.ComplaintFilter) squirrel.SelectBuilder {
	if f.Status != nil {
		b = b.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.Category != nil {
		b = b.Where(squirrel.Eq{"category": *f.Category})
	}
	if f.Priority != nil {
		b = b.Where(squirrel.Eq{"priority": *f.Priority})
	}
	if f.Block != "" {
		b = b.Where(squirrel.Eq{"block": f.Block})
	}
	if f.StudentID != nil {
		b = b.Where(squirrel.Eq{"student_id": *f.StudentID})
	}
	if f.AssignedAdminID != nil {
		b = b.Where(squirrel.Eq{"assigned_admin_id": *f.AssignedAdminID})
	}
	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	return b
}

// List retrieves complaints matching filter
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	b := applyFilter(selectComplaints(), filter).OrderBy("created_at DESC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	complaints := []*models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint rows: %w", err)
	}

	return complaints, nil
}

// Update updates a complaint
func (r *ComplaintRepository) Update(ctx context.Context, c *models.Complaint) error {
	query, args, err := psql().Update("complaints").
		SetMap(map[string]interface{}{
			"title":             c.Title,
			"description":       c.Description,
			"category":          c.Category,
			"priority":          c.Priority,
			"status":            c.Status,
			"assigned_admin_id": c.AssignedAdminID,
			"admin_response":    c.AdminResponse,
			"updated_at":        c.UpdatedAt,
			"resolved_at":       c.ResolvedAt,
		}).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError("failed to update complaint", err)
	}
	if err := expectOneRow(fmt.Sprintf("complaint %s", c.ID), result); err != nil {
		return err
	}

	r.logger.Debug("complaint updated",
		zap.String("id", c.ID.String()),
		zap.String("status", string(c.Status)))
	return nil
}

// Delete deletes a complaint
func (r *ComplaintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql().Delete("complaints").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError("failed to delete complaint", err)
	}
	if err := expectOneRow(fmt.Sprintf("complaint %s", id), result); err != nil {
		return err
	}

	r.logger.Debug("complaint deleted", zap.String("id", id.String()))
	return nil
}

// countBy runs SELECT column, COUNT(*) ... GROUP BY column
func (r *ComplaintRepository) countBy(ctx context.Context, column string) (map[string]int64, error) {
	query, args, err := psql().
		Select(column, "COUNT(*)").
		From("complaints").
		GroupBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count complaints by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return counts, nil
}

// Stats aggregates complaint counts by status, category and priority
func (r *ComplaintRepository) Stats(ctx context.Context) (*models.ComplaintStats, error) {
	byStatus, err := r.countBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	byCategory, err := r.countBy(ctx, "category")
	if err != nil {
		return nil, err
	}
	byPriority, err := r.countBy(ctx, "priority")
	if err != nil {
		return nil, err
	}

	stats := &models.ComplaintStats{
		Pending:    byStatus[string(models.StatusPending)],
		InProgress: byStatus[string(models.StatusInProgress)],
		Resolved:   byStatus[string(models.StatusResolved)],
		Rejected:   byStatus[string(models.StatusRejected)],
		ByCategory: make(map[models.ComplaintCategory]int64, len(models.Categories)),
		ByPriority: make(map[models.ComplaintPriority]int64, len(models.Priorities)),
	}
	for _, n := range byStatus {
		stats.Total += n
	}
	for _, c := range models.Categories {
		stats.ByCategory[c] = byCategory[string(c)]
	}
	for _, p := range models.Priorities {
		stats.ByPriority[p] = byPriority[string(p)]
	}
	return stats, nil
}
