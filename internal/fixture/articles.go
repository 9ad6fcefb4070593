package fixture

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type article struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    user      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type articleInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type articlePage struct {
	List     []article `json:"list"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// articleState is guarded by Server.mu.
type articleState struct {
	items  map[int]*article
	nextID int
}

func (a *articleState) seed(author user) {
	a.items = make(map[int]*article)
	a.nextID = 1
	now := time.Now().UTC().Truncate(time.Second)
	for _, title := range []string{"Getting started", "Envelope responses", "Uploading files"} {
		id := a.nextID
		a.nextID++
		a.items[id] = &article{ID: id, Title: title, Content: title + " explained.", Author: author, CreatedAt: now, UpdatedAt: now}
	}
}

func (s *Server) handleArticleList(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid query parameters")
		return
	}
	req.normalize()
	keyword := strings.ToLower(strings.TrimSpace(req.Keyword))

	s.mu.RLock()
	all := make([]article, 0, len(s.articles.items))
	for _, a := range s.articles.items {
		if keyword != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Content), keyword) {
			continue
		}
		all = append(all, *a)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start, end := req.bounds(len(all))
	ok(c, "success", articlePage{List: all[start:end], Total: len(all), Page: req.Page, PageSize: req.PageSize})
}

func (s *Server) handleArticleGet(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.RLock()
	a, found := s.articles.items[id]
	var out article
	if found {
		out = *a
	}
	s.mu.RUnlock()
	if !found {
		fail(c, http.StatusNotFound, http.StatusNotFound, "article not found")
		return
	}
	ok(c, "success", out)
}

func (s *Server) handleArticleCreate(c *gin.Context) {
	var in articleInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		fail(c, http.StatusOK, http.StatusBadRequest, "title is required")
		return
	}
	now := time.Now().UTC().Truncate(time.Second)
	s.mu.Lock()
	id := s.articles.nextID
	s.articles.nextID++
	a := &article{ID: id, Title: strings.TrimSpace(*in.Title), Author: s.profile, CreatedAt: now, UpdatedAt: now}
	if in.Content != nil {
		a.Content = *in.Content
	}
	s.articles.items[id] = a
	out := *a
	s.mu.Unlock()
	ok(c, "created", out)
}

func (s *Server) handleArticleUpdate(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var in articleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	a, found := s.articles.items[id]
	var out article
	if found {
		if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
			a.Title = strings.TrimSpace(*in.Title)
		}
		if in.Content != nil {
			a.Content = *in.Content
		}
		a.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		out = *a
	}
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, http.StatusNotFound, "article not found")
		return
	}
	ok(c, "updated", out)
}

func (s *Server) handleArticleDelete(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	_, found := s.articles.items[id]
	delete(s.articles.items, id)
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, http.StatusNotFound, "article not found")
		return
	}
	ok(c, "deleted", nil)
}
