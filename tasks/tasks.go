package tasks

import "encoding/json"

// Queue names. Each queue carries one payload type.
const (
	// QueueBlogGenerate runs the full generation pipeline for a pending post.
	QueueBlogGenerate = "q_blog_generate"
)

// BlogGenerateTaskPayload is the payload for QueueBlogGenerate.
type BlogGenerateTaskPayload struct {
	BlogID uint `json:"blog_id"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
