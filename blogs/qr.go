package blogs

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	summaryMinLen = 600
	summaryMaxLen = 800
)

// BuildSummary normalizes whitespace and cuts the text to at most maxLen
// characters, breaking on a word boundary where possible. Bounds are rune
// counts, so multi-byte text is never split mid-character.
func BuildSummary(text string, minLen, maxLen int) string {
	if text == "" {
		return ""
	}

	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	cutoff := maxLen
	for i := maxLen - 1; i >= minLen; i-- {
		if runes[i] == ' ' {
			cutoff = i
			break
		}
	}
	return strings.TrimRight(string(runes[:cutoff]), " ") + "..."
}

// BlogQR returns a PNG QR code carrying a short summary plus the absolute
// URL of the post.
func (h *Handler) BlogQR(c *gin.Context) {
	userID := c.GetUint("user_id")
	id, ok := h.blogID(c)
	if !ok {
		return
	}

	post, err := h.Posts.GetActiveOwned(c.Request.Context(), id, userID)
	if err != nil {
		h.notFoundOrError(c, err)
		return
	}

	summary := BuildSummary(post.Content, summaryMinLen, summaryMaxLen)
	blogURL := fmt.Sprintf("%s/blogs/%d", h.BaseURL, post.ID)
	payload := fmt.Sprintf("%s\n\nRead full blog: %s", summary, blogURL)

	png, err := qrcode.Encode(payload, qrcode.Low, 512)
	if err != nil {
		h.log.WithError(err).Error("failed to encode QR code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=blog_%d_qr.png", post.ID))
	c.Data(http.StatusOK, "image/png", png)
}
