package fixture

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type record struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Num    int    `json:"num"`
	Status string `json:"status"`
}

type page struct {
	List     []record `json:"list"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

type pageRequest struct {
	Page     int    `json:"page" form:"page"`
	PageSize int    `json:"pageSize" form:"pageSize"`
	Keyword  string `json:"keyword" form:"keyword"`
	Status   string `json:"status" form:"status"`
}

func (r *pageRequest) normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
}

type recordInput struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Num    *int    `json:"num"`
	Status *string `json:"status"`
}

// tableState holds mutations applied on top of the generated records. Guarded by Server.mu.
type tableState struct {
	overrides map[int]record
	deleted   map[int]bool
	created   []record
	nextID    int
}

func (t *tableState) reset() {
	t.overrides = make(map[int]record)
	t.deleted = make(map[int]bool)
	t.created = nil
	t.nextID = 0
}

func generatedRecord(i int) record {
	status := "active"
	if i%2 != 0 {
		status = "banned"
	}
	return record{ID: i, Name: "John", Age: i + 1, Num: i + 1, Status: status}
}

// rowsLocked materializes the current table. Callers hold s.mu.
func (s *Server) rowsLocked() []record {
	rows := make([]record, 0, s.total+len(s.table.created))
	for i := 0; i < s.total; i++ {
		if s.table.deleted[i] {
			continue
		}
		if r, ok := s.table.overrides[i]; ok {
			rows = append(rows, r)
			continue
		}
		rows = append(rows, generatedRecord(i))
	}
	for _, r := range s.table.created {
		if !s.table.deleted[r.ID] {
			if o, ok := s.table.overrides[r.ID]; ok {
				r = o
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func (s *Server) findLocked(id int) (record, bool) {
	if s.table.deleted[id] {
		return record{}, false
	}
	if r, ok := s.table.overrides[id]; ok {
		return r, true
	}
	if id >= 0 && id < s.total {
		return generatedRecord(id), true
	}
	for _, r := range s.table.created {
		if r.ID == id {
			return r, true
		}
	}
	return record{}, false
}

// bounds returns the slice range of req's page over n items. Pages past the end are empty; the
// page index is compared before multiplying so huge pages cannot overflow. req must be normalized.
func (r pageRequest) bounds(n int) (start, end int) {
	if pages := (n + r.PageSize - 1) / r.PageSize; r.Page-1 < pages {
		start = (r.Page - 1) * r.PageSize
		return start, min(start+r.PageSize, n)
	}
	return n, n
}

// paginate returns the records in [(page-1)*pageSize, min(page*pageSize, total)).
func paginate(rows []record, req pageRequest) page {
	req.normalize()
	start, end := req.bounds(len(rows))
	list := make([]record, end-start)
	copy(list, rows[start:end])
	return page{List: list, Total: len(rows), Page: req.Page, PageSize: req.PageSize}
}

func filterRows(rows []record, keyword, status string) []record {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	status = strings.ToLower(strings.TrimSpace(status))
	if keyword == "" && status == "" {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		if status != "" && r.Status != status {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(r.Name), keyword) && strconv.Itoa(r.ID) != keyword {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Server) listPage(req pageRequest, filtered bool) page {
	req.normalize()
	s.mu.RLock()
	rows := s.rowsLocked()
	s.mu.RUnlock()
	if filtered {
		rows = filterRows(rows, req.Keyword, req.Status)
	}
	return paginate(rows, req)
}

func (s *Server) handleTableQuery(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid query parameters")
		return
	}
	ok(c, "success", s.listPage(req, false))
}

// handleTablePost lists a page, or creates a record when the body carries a name and no page.
func (s *Server) handleTablePost(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid request body")
		return
	}
	if gjson.GetBytes(body, "name").Exists() && !gjson.GetBytes(body, "page").Exists() {
		s.createRecord(c, body)
		return
	}
	var req pageRequest
	if err = json.Unmarshal(body, &req); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid request body")
		return
	}
	ok(c, "success", s.listPage(req, false))
}

func (s *Server) handleTableSearch(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid request body")
		return
	}
	ok(c, "success", s.listPage(req, true))
}

func (s *Server) createRecord(c *gin.Context, body []byte) {
	var in recordInput
	if err := json.Unmarshal(body, &in); err != nil || in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		fail(c, http.StatusOK, http.StatusBadRequest, "name is required")
		return
	}
	s.mu.Lock()
	id := s.total + len(s.table.created)
	if s.table.nextID > id {
		id = s.table.nextID
	}
	s.table.nextID = id + 1
	r := applyInput(record{ID: id, Status: "active"}, in)
	s.table.created = append(s.table.created, r)
	s.mu.Unlock()
	ok(c, "created", r)
}

func applyInput(r record, in recordInput) record {
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Age != nil {
		r.Age = *in.Age
	}
	if in.Num != nil {
		r.Num = *in.Num
	}
	if in.Status != nil {
		r.Status = *in.Status
	}
	return r
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		fail(c, http.StatusBadRequest, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleTableUpdate(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var in recordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	current, found := s.findLocked(id)
	if !found {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, http.StatusNotFound, "record not found")
		return
	}
	updated := applyInput(current, in)
	s.table.overrides[id] = updated
	s.mu.Unlock()
	ok(c, "updated", updated)
}

func (s *Server) handleTableDelete(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	_, found := s.findLocked(id)
	if found {
		s.table.deleted[id] = true
	}
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, http.StatusNotFound, "record not found")
		return
	}
	ok(c, "deleted", nil)
}
