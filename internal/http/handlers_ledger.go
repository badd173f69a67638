package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gastos/internal/core"
	"gastos/internal/log"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(c *gin.Context) {
	cats, err := s.ledger.ListCategories(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpList, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := s.ledger.AddCategory(c.Request.Context(), owner(c), sanitizeInput(req.Name))
	if err != nil {
		s.respondError(c, log.OpCreate, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) handleRenameCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := s.ledger.RenameCategory(c.Request.Context(), owner(c), pathParam(c, "name"), sanitizeInput(req.Name))
	if err != nil {
		s.respondError(c, log.OpUpdate, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	if err := s.ledger.DeleteCategory(c.Request.Context(), owner(c), pathParam(c, "name")); err != nil {
		s.respondError(c, log.OpDelete, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCategoryUsage(c *gin.Context) {
	name := pathParam(c, "name")
	n, err := s.ledger.CategoryUsage(c.Request.Context(), owner(c), name)
	if err != nil {
		s.respondError(c, log.OpRead, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": name, "fixed_expenses": n})
}

// Fixed expenses

func (s *Server) handleListFixedExpenses(c *gin.Context) {
	fixed, err := s.ledger.ListFixedExpenses(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpList, err)
		return
	}
	c.JSON(http.StatusOK, fixed)
}

func (s *Server) handleGetFixedExpense(c *gin.Context) {
	e, err := s.ledger.GetFixedExpense(c.Request.Context(), owner(c), pathParam(c, "id"))
	if err != nil {
		s.respondError(c, log.OpRead, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) handleCreateFixedExpense(c *gin.Context) {
	var raw core.RawFixedExpense
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.ledger.AddFixedExpense(c.Request.Context(), owner(c), raw)
	if err != nil {
		s.respondError(c, log.OpCreate, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) handleUpdateFixedExpense(c *gin.Context) {
	var raw core.RawFixedExpense
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.ledger.UpdateFixedExpense(c.Request.Context(), owner(c), pathParam(c, "id"), raw)
	if err != nil {
		s.respondError(c, log.OpUpdate, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) handleDeleteFixedExpense(c *gin.Context) {
	if err := s.ledger.DeleteFixedExpense(c.Request.Context(), owner(c), pathParam(c, "id")); err != nil {
		s.respondError(c, log.OpDelete, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleFixedTotals(c *gin.Context) {
	totals, err := s.ledger.FixedTotals(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// General expenses

func (s *Server) handleListGeneralExpenses(c *gin.Context) {
	f, err := parseGeneralFilter(c)
	if err != nil {
		s.respondError(c, log.OpList, err)
		return
	}
	general, err := s.ledger.ListGeneralExpenses(c.Request.Context(), owner(c), f)
	if err != nil {
		s.respondError(c, log.OpList, err)
		return
	}
	c.JSON(http.StatusOK, general)
}

func (s *Server) handleCreateGeneralExpense(c *gin.Context) {
	var raw core.RawGeneralExpense
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.ledger.AddGeneralExpense(c.Request.Context(), owner(c), raw)
	if err != nil {
		s.respondError(c, log.OpCreate, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) handleUpdateGeneralExpense(c *gin.Context) {
	var raw core.RawGeneralExpense
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.ledger.UpdateGeneralExpense(c.Request.Context(), owner(c), pathParam(c, "id"), raw)
	if err != nil {
		s.respondError(c, log.OpUpdate, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) handleDeleteGeneralExpense(c *gin.Context) {
	if err := s.ledger.DeleteGeneralExpense(c.Request.Context(), owner(c), pathParam(c, "id")); err != nil {
		s.respondError(c, log.OpDelete, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Salaries

func (s *Server) handleListSalaries(c *gin.Context) {
	salaries, err := s.ledger.ListSalaries(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpList, err)
		return
	}
	c.JSON(http.StatusOK, salaries)
}

func (s *Server) handleCreateSalary(c *gin.Context) {
	var raw core.RawSalaryRecord
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := s.ledger.AddSalary(c.Request.Context(), owner(c), raw)
	if err != nil {
		s.respondError(c, log.OpCreate, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleUpdateSalary(c *gin.Context) {
	var raw core.RawSalaryRecord
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := s.ledger.UpdateSalary(c.Request.Context(), owner(c), pathParam(c, "id"), raw)
	if err != nil {
		s.respondError(c, log.OpUpdate, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteSalary(c *gin.Context) {
	if err := s.ledger.DeleteSalary(c.Request.Context(), owner(c), pathParam(c, "id")); err != nil {
		s.respondError(c, log.OpDelete, err)
		return
	}
	c.Status(http.StatusNoContent)
}
