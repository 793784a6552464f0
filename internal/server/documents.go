package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountsdomain "github.com/ledgerwell/praxis/internal/accounts/domain"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

func (s *Server) CreateDocument(c *gin.Context) {
	var req accountsdomain.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.accountsSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDocuments(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClientID  string `form:"client_id"`
		Status    string `form:"status"`
		Framework string `form:"framework"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.accountsSvc.List(c.Request.Context(), accountsdomain.ListDocumentsRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  int32(query.PageSize),
		ClientID:  strings.TrimSpace(query.ClientID),
		Status:    accountsdomain.DocumentStatus(strings.ToUpper(strings.TrimSpace(query.Status))),
		Framework: accountsdomain.Framework(strings.ToUpper(strings.TrimSpace(query.Framework))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDocumentByID(c *gin.Context) {
	resp, err := s.accountsSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	if err := s.accountsSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) UpdateDocumentSection(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	c.Set("section_key", key)

	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		AbortWithError(c, invalidField("body", "required", "section payload is required"))
		return
	}

	resp, err := s.accountsSvc.UpdateSection(c.Request.Context(), accountsdomain.UpdateSectionRequest{
		ID:   strings.TrimSpace(c.Param("id")),
		Key:  accountsdomain.SectionKey(key),
		Data: data,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) LockDocument(c *gin.Context) {
	resp, err := s.accountsSvc.Lock(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnlockDocument(c *gin.Context) {
	resp, err := s.accountsSvc.Unlock(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GenerateDocumentOutputs(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	ctx := c.Request.Context()

	// One render per document at a time. A second request while a render
	// runs conflicts rather than queueing behind an expensive job.
	token, ok := s.limiter.TryLockRender(ctx, id)
	if !ok {
		AbortWithError(c, ErrRenderInProgress)
		return
	}
	defer s.limiter.ReleaseRender(ctx, id, token)

	resp, err := s.accountsSvc.GenerateOutputs(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDocumentHistory(c *gin.Context) {
	resp, err := s.accountsSvc.History(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
