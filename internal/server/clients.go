package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

type createClientRequest struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	CompanyNumber string   `json:"company_number"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	AddressLines  []string `json:"address_lines"`
	ServiceLines  []string `json:"service_lines"`
	YearEndDay    int      `json:"year_end_day"`
	YearEndMonth  int      `json:"year_end_month"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.clientSvc.Create(c.Request.Context(), clientdomain.CreateClientRequest{
		Name:          strings.TrimSpace(req.Name),
		Type:          clientdomain.ClientType(strings.ToUpper(strings.TrimSpace(req.Type))),
		CompanyNumber: strings.TrimSpace(req.CompanyNumber),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		AddressLines:  req.AddressLines,
		ServiceLines:  req.ServiceLines,
		YearEndDay:    req.YearEndDay,
		YearEndMonth:  req.YearEndMonth,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListClients(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name            string `form:"name"`
		Slug            string `form:"slug"`
		Type            string `form:"type"`
		CompanyNumber   string `form:"company_number"`
		IncludeArchived bool   `form:"include_archived"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.clientSvc.List(c.Request.Context(), clientdomain.ListClientRequest{
		PageToken:       strings.TrimSpace(query.PageToken),
		PageSize:        int32(query.PageSize),
		Name:            strings.TrimSpace(query.Name),
		Slug:            strings.TrimSpace(query.Slug),
		Type:            strings.TrimSpace(query.Type),
		CompanyNumber:   strings.TrimSpace(query.CompanyNumber),
		IncludeArchived: query.IncludeArchived,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClientByID(c *gin.Context) {
	resp, err := s.clientSvc.GetByID(c.Request.Context(), clientdomain.GetClientRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateClientRequest struct {
	Name          *string   `json:"name"`
	CompanyNumber *string   `json:"company_number"`
	Email         *string   `json:"email"`
	Phone         *string   `json:"phone"`
	AddressLines  *[]string `json:"address_lines"`
	ServiceLines  *[]string `json:"service_lines"`
	YearEndDay    *int      `json:"year_end_day"`
	YearEndMonth  *int      `json:"year_end_month"`
	Archived      *bool     `json:"archived"`
}

func (s *Server) UpdateClient(c *gin.Context) {
	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.clientSvc.Update(c.Request.Context(), clientdomain.UpdateClientRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Name:          req.Name,
		CompanyNumber: req.CompanyNumber,
		Email:         req.Email,
		Phone:         req.Phone,
		AddressLines:  req.AddressLines,
		ServiceLines:  req.ServiceLines,
		YearEndDay:    req.YearEndDay,
		YearEndMonth:  req.YearEndMonth,
		Archived:      req.Archived,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
