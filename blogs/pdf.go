package blogs

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
)

// BlogPDF renders the post as a downloadable PDF.
func (h *Handler) BlogPDF(c *gin.Context) {
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

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(post.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(post.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, tr("Source: "+post.SourceLink), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	for _, para := range strings.Split(post.Content, "\n") {
		pdf.MultiCell(0, 6, tr(para), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		h.log.WithError(err).Error("failed to render PDF")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating PDF"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="blog-%d.pdf"`, post.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
