package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"menulens.app/menu-digitalizer/internal/config"
)

const (
	defaultVisionModelName = "gemini-1.5-flash-latest"

	// One request, one response. The model call is bounded server-side;
	// there is no retry or streaming.
	extractionTimeout = 60 * time.Second

	menuExtractionPrompt = `Analyze this restaurant menu image and extract all menu items in a structured format.

For each menu item, provide:
- name: The dish name
- price: The price (if visible)
- description: Brief description (if available)
- category: Type of dish (appetizer, main, dessert, beverage, etc.)
- ingredients: List of main ingredients mentioned
- allergens: Common allergens present (nuts, dairy, gluten, shellfish, etc.)
- dietary: Any dietary tags (vegetarian, vegan, gluten-free, etc.)

Also identify the restaurant name if visible.

Return ONLY valid JSON in this exact format:
{
  "restaurant_name": "Restaurant Name or null",
  "items": [
    {
      "name": "Dish Name",
      "price": "$X.XX or null",
      "description": "Description or null",
      "category": "Category",
      "ingredients": ["ingredient1", "ingredient2"],
      "allergens": ["allergen1"],
      "dietary": ["tag1", "tag2"]
    }
  ]
}

Be thorough and extract all visible menu items.`
)

// VisionClient is the boundary to the vision model. Handlers and tests
// swap in fakes; the real implementation is VisionService.
type VisionClient interface {
	ExtractMenuText(ctx context.Context, mediaType string, data []byte) (string, error)
}

type VisionService struct {
	client *genai.Client
}

func NewVisionService() *VisionService {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &VisionService{
		client: client,
	}
}

func (s *VisionService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

// ExtractMenuText sends the prepared menu photo to the model with the
// fixed extraction instruction and returns the raw text reply. The reply
// usually wraps JSON in prose or markdown fences; extracting the object
// is the caller's job.
func (s *VisionService) ExtractMenuText(ctx context.Context, mediaType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	model := s.client.GenerativeModel(defaultVisionModelName)

	// genai wants the bare format ("jpeg"), not the full media type.
	format := strings.TrimPrefix(mediaType, "image/")

	resp, err := model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(menuExtractionPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini menu extraction request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned an empty response for menu extraction")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}

	return responseText.String(), nil
}
