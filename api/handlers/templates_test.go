package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendgrove/blastpipe/internal/models"
	"github.com/sendgrove/blastpipe/internal/repository"
)

type fakeTemplateRepo struct {
	templates map[string]*models.EmailTemplate
	saved     []*models.EmailTemplate
}

func (r *fakeTemplateRepo) GetForUser(ctx context.Context, id, userID string) (*models.EmailTemplate, error) {
	template := r.templates[id]
	if template == nil || template.UserID != userID {
		return nil, nil
	}
	return template, nil
}

func (r *fakeTemplateRepo) Save(ctx context.Context, template *models.EmailTemplate) error {
	r.templates[template.ID] = template
	r.saved = append(r.saved, template)
	return nil
}

func newTemplatesRouter(repo *fakeTemplateRepo, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewTemplatesHandler(&repository.Repositories{TemplateRepository: repo})
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("UserId", userID) })
	r.POST("/templates", handler.Save())
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSaveTemplate_CreatesForCaller(t *testing.T) {
	repo := &fakeTemplateRepo{templates: make(map[string]*models.EmailTemplate)}
	r := newTemplatesRouter(repo, "user_1")

	w := postJSON(t, r, "/templates", `{"name":"welcome","subject":"Hi [name]","htmlBody":"<p>Hello [name]</p>"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "user_1", repo.saved[0].UserID)
	assert.ElementsMatch(t, []string{"name"}, repo.saved[0].Variables)
}

func TestSaveTemplate_UpdatesOwnTemplate(t *testing.T) {
	repo := &fakeTemplateRepo{templates: map[string]*models.EmailTemplate{
		"tmpl_1": {ID: "tmpl_1", UserID: "user_1", Name: "old", HTMLBody: "<p>old</p>"},
	}}
	r := newTemplatesRouter(repo, "user_1")

	w := postJSON(t, r, "/templates", `{"id":"tmpl_1","name":"new","htmlBody":"<p>Hello [name]</p>"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "new", repo.templates["tmpl_1"].Name)
}

func TestSaveTemplate_RejectsForeignTemplateId(t *testing.T) {
	repo := &fakeTemplateRepo{templates: map[string]*models.EmailTemplate{
		"tmpl_1": {ID: "tmpl_1", UserID: "user_1", Name: "theirs", HTMLBody: "<p>theirs</p>"},
	}}
	r := newTemplatesRouter(repo, "user_2")

	w := postJSON(t, r, "/templates", `{"id":"tmpl_1","name":"mine now","htmlBody":"<p>mine</p>"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, repo.saved)
	assert.Equal(t, "user_1", repo.templates["tmpl_1"].UserID)
	assert.Equal(t, "theirs", repo.templates["tmpl_1"].Name)
}
