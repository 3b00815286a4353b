package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trackerscope/internal/dnsclient"
)

type RegistrableHandler struct {
	Resolver *dnsclient.Registrable
}

func NewRegistrableHandler(r *dnsclient.Registrable) *RegistrableHandler {
	return &RegistrableHandler{Resolver: r}
}

func (h *RegistrableHandler) Lookup(c *gin.Context) {
	input := strings.TrimSpace(c.Param("domain"))
	if input == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Domain is required"})
		return
	}

	host := input
	if ascii, err := dnsclient.DomainToASCII(input); err == nil {
		host = ascii
	}

	c.JSON(http.StatusOK, gin.H{
		"input":       input,
		"host":        host,
		"registrable": h.Resolver.Domain(host),
	})
}
