package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 15

// parseIDParam reads a positive numeric path parameter. On failure the
// response has already been written.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format.", name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// pagination reads page and page_size (per_page is accepted as an alias).
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size := c.Query("page_size")
	if size == "" {
		size = c.Query("per_page")
	}
	pageSize, _ = strconv.Atoi(size)
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// queryParser collects per-field errors of optional query parameters so a
// handler can report them together.
type queryParser struct {
	c      *gin.Context
	fields map[string]string
}

func newQueryParser(c *gin.Context) *queryParser {
	return &queryParser{c: c, fields: map[string]string{}}
}

func (p *queryParser) String(name string) *string {
	v := strings.TrimSpace(p.c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

func (p *queryParser) Int64(name string) *int64 {
	v := p.c.Query(name)
	if v == "" {
		return nil
	}
	n, err := utils.StrToInt64(v)
	if err != nil {
		p.fields[name] = "must be an integer"
		return nil
	}
	return &n
}

func (p *queryParser) Bool(name string) *bool {
	v := p.c.Query(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fields[name] = "must be a boolean"
		return nil
	}
	return &b
}

// Date parses a calendar date; endOfDay moves it to the last instant of
// that day so the bound is inclusive.
func (p *queryParser) Date(name string, endOfDay bool) *time.Time {
	v := p.c.Query(name)
	if v == "" {
		return nil
	}
	t, err := utils.ParseDate(v)
	if err != nil {
		p.fields[name] = "must be a date (YYYY-MM-DD)"
		return nil
	}
	if endOfDay {
		t = utils.EndOfDay(t)
	}
	return &t
}

// OneOf keeps the value only when it is one of allowed.
func (p *queryParser) OneOf(name string, allowed ...string) *string {
	v := p.String(name)
	if v == nil {
		return nil
	}
	for _, a := range allowed {
		if *v == a {
			return v
		}
	}
	p.fields[name] = "must be one of: " + strings.Join(allowed, " ")
	return nil
}

// Failed writes a 422 if any parameter was invalid.
func (p *queryParser) Failed() bool {
	if len(p.fields) == 0 {
		return false
	}
	utils.RespondValidationFailed(p.c, "Invalid query parameters", p.fields)
	return true
}

// currentViewer describes the authenticated caller for read scoping.
func currentViewer(c *gin.Context) services.Viewer {
	id, _ := utils.CurrentUserID(c)
	return services.Viewer{UserID: id, Role: utils.CurrentUserRole(c)}
}

// mustUserID returns the authenticated user id or answers 401.
func mustUserID(c *gin.Context) (int64, bool) {
	id, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "missing user id in context"))
		return 0, false
	}
	return id, true
}

func paginated(data interface{}, page, pageSize, total int) models.PaginatedResponse {
	return models.PaginatedResponse{Data: data, Page: page, PageSize: pageSize, TotalCount: total}
}
