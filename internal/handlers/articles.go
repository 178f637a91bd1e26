package handlers

import (
	"net/http"

	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"
)

// articleRequest carries only client-controlled fields; authorship comes from the token.
type articleRequest struct {
	Title   string `json:"title" binding:"required" example:"Hello"`
	Content string `json:"content" example:"<p>first post</p>"`
}

type searchRequest struct {
	Title string `json:"title" example:"hello"`
}

// @Summary      List articles
// @Tags         articles
// @Produce      json
// @Success      200  {array}   models.Article
// @Router       /api/articles [get]
func (h *Handler) listArticles(c *gin.Context) {
	articles, err := h.services.Articles.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "articles_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

// @Summary      Search articles by title
// @Description  Case-insensitive substring match; wildcard characters match literally.
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        body  body      searchRequest  true  "Title fragment"
// @Success      200   {array}   models.Article
// @Failure      400   {object}  map[string]string
// @Router       /api/articles/search [post]
func (h *Handler) searchArticles(c *gin.Context) {
	var input searchRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	articles, err := h.services.Articles.Search(c.Request.Context(), input.Title)
	if err != nil {
		h.respondError(c, "articles_search_failed", err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

// @Summary      Get article
// @Tags         articles
// @Produce      json
// @Param        id   path      int  true  "Article ID"
// @Success      200  {object}  models.Article
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/articles/{id} [get]
func (h *Handler) getArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.services.Articles.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "article_get_failed", err, "article_id", id)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Create article
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        body  body      articleRequest  true  "Article"
// @Success      201   {object}  map[string]interface{}  "message, article"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/articles [post]
// @Security     BearerAuth
func (h *Handler) createArticle(c *gin.Context) {
	var input articleRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	a, err := h.services.Articles.Create(c.Request.Context(), identityFrom(c), service.ArticleInput{
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		h.respondError(c, "article_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "article created", "article": a})
}

// @Summary      Update article
// @Description  Author or admin.
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        id    path      int             true  "Article ID"
// @Param        body  body      articleRequest  true  "Article"
// @Success      200   {object}  map[string]interface{}  "message, article"
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/articles/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input articleRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	a, err := h.services.Articles.Update(c.Request.Context(), identityFrom(c), id, service.ArticleInput{
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		h.respondError(c, "article_update_failed", err, "article_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "article updated", "article": a})
}

// @Summary      Delete article
// @Description  Admin only. Comments on the article are removed too.
// @Tags         articles
// @Produce      json
// @Param        id   path      int  true  "Article ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/articles/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Articles.Delete(c.Request.Context(), identityFrom(c), id); err != nil {
		h.respondError(c, "article_delete_failed", err, "article_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "article deleted"})
}
