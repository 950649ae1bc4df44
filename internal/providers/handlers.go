package providers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// UpsertMyProfile creates or updates the caller's provider profile.
// PUT /api/providers/me
func UpsertMyProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	var req struct {
		Specializations []string `json:"specializations"`
		HourlyRate      *int64   `json:"hourly_rate"`
		Location        *string  `json:"location"`
		Bio             *string  `json:"bio"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperr.New(apperr.CodeValidation, "invalid request body"))
	}
	if len(req.Specializations) == 0 {
		return response.Error(c, apperr.New(apperr.CodeValidation, "at least one specialization is required"))
	}
	if req.HourlyRate != nil && *req.HourlyRate <= 0 {
		return response.Error(c, apperr.New(apperr.CodeValidation, "hourly_rate must be positive"))
	}

	_, err := db.Conn.Exec(context.Background(), `
        INSERT INTO providers (id, user_id, specializations, hourly_rate, location, bio)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id) DO UPDATE SET
            specializations = EXCLUDED.specializations,
            hourly_rate = EXCLUDED.hourly_rate,
            location = EXCLUDED.location,
            bio = EXCLUDED.bio`,
		uuid.New().String(), userID, req.Specializations, req.HourlyRate, req.Location, req.Bio,
	)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to save provider profile", err))
	}

	p, err := GetByUserID(context.Background(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, p)
}

// MyProfile returns the caller's provider profile.
// GET /api/providers/me
func MyProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}
	p, err := GetByUserID(context.Background(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, p)
}

// List returns provider profiles, optionally filtered by category and location.
// GET /api/providers?category=Plumbing&location=Lagos
func List(c echo.Context) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	query := `
        SELECT p.id::text, p.user_id::text, u.name, p.specializations, p.hourly_rate,
               p.location, p.bio, COALESCE(p.verified, FALSE), p.created_at
        FROM providers p
        JOIN users u ON u.id = p.user_id
        WHERE COALESCE(u.is_active, TRUE)`
	args := []interface{}{}
	if cat := c.QueryParam("category"); cat != "" {
		args = append(args, cat)
		query += ` AND $` + strconv.Itoa(len(args)) + ` = ANY(p.specializations)`
	}
	if loc := c.QueryParam("location"); loc != "" {
		args = append(args, "%"+loc+"%")
		query += ` AND p.location ILIKE $` + strconv.Itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY p.verified DESC, p.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to load providers", err))
	}
	defer rows.Close()

	items := []Provider{}
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Specializations, &p.HourlyRate,
			&p.Location, &p.Bio, &p.Verified, &p.CreatedAt); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to parse provider", err))
		}
		items = append(items, p)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"providers": items})
}

// GetPublicProfile returns one provider profile by user id.
// GET /api/providers/:id
func GetPublicProfile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "missing provider id"))
	}
	p, err := GetByUserID(context.Background(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, p)
}

// GetByUserID loads a provider profile keyed by the owning user's id.
func GetByUserID(ctx context.Context, userID string) (*Provider, error) {
	var p Provider
	err := db.Conn.QueryRow(ctx, `
        SELECT p.id::text, p.user_id::text, u.name, p.specializations, p.hourly_rate,
               p.location, p.bio, COALESCE(p.verified, FALSE), p.created_at
        FROM providers p
        JOIN users u ON u.id = p.user_id
        WHERE p.user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Specializations, &p.HourlyRate,
			&p.Location, &p.Bio, &p.Verified, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.CodeNotFound, "provider profile not found")
		}
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to load provider", err)
	}
	return &p, nil
}


// Specializations returns the categories a provider serves, for job discovery.
func Specializations(ctx context.Context, userID string) ([]string, error) {
	var specs []string
	err := db.Conn.QueryRow(ctx,
		`SELECT specializations FROM providers WHERE user_id = $1`, userID).Scan(&specs)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.New(apperr.CodeNotFound, "provider profile not found")
		}
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to load specializations", err)
	}
	return specs, nil
}
