package blogs

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/gin-gonic/gin"
)

var phonePattern = regexp.MustCompile(`^\d{8,15}$`)

type WhatsAppShareRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Message     string `json:"message" binding:"required,max=5000"`
}

// ShareWhatsApp builds a wa.me deep link for the given number and message.
func (h *Handler) ShareWhatsApp(c *gin.Context) {
	var req WhatsAppShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number and message are required"})
		return
	}
	if !phonePattern.MatchString(req.PhoneNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Enter a valid phone number with digits and country code only"})
		return
	}

	shareURL := fmt.Sprintf("https://wa.me/%s?text=%s", req.PhoneNumber, url.QueryEscape(req.Message))
	c.JSON(http.StatusOK, gin.H{"whatsapp_url": shareURL})
}
