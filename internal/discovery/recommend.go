package discovery

import (
	"strings"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

// recommendedFamilies, best first. Used for human-facing reporting only;
// strategy selection never consults this ordering.
var recommendedFamilies = [][]string{
	{"qwen2-vl", "qwen2.5vl", "qwen"},        // best OCR-style reading
	{"llava", "bakllava"},                    // best balance of speed and accuracy
	{"moondream", "minicpm-v", "donut"},      // document-specialized, small
}

// RecommendModel picks the model a human should reach for first from a
// discovery report: preferred local families in order, then any other local
// model, then the first HF-style (owner/model) bundle, then anything.
func RecommendModel(models []entity.AvailableModel) *entity.AvailableModel {
	if len(models) == 0 {
		return nil
	}

	for _, family := range recommendedFamilies {
		for i := range models {
			m := &models[i]
			if !localKind(m) {
				continue
			}
			lower := strings.ToLower(m.Name)
			for _, pattern := range family {
				if strings.Contains(lower, pattern) {
					return m
				}
			}
		}
	}

	for i := range models {
		if localKind(&models[i]) && !strings.Contains(models[i].Name, "/") {
			return &models[i]
		}
	}
	for i := range models {
		if strings.Contains(models[i].Name, "/") {
			return &models[i]
		}
	}
	return &models[0]
}

func localKind(m *entity.AvailableModel) bool {
	return m.Kind == constants.ProviderLlamaCpp || m.Kind == constants.ProviderOllama
}
