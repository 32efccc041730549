package server

import (
	"fmt"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

func documentFromRequest(req extractRequest) (*entity.Document, error) {
	switch {
	case req.FilePath != "" && len(req.Content) > 0:
		return nil, fmt.Errorf("%w: set either file_path or content, not both", common.ErrInvalidDocument)
	case req.FilePath != "":
		return entity.NewDocumentFromFile(req.FilePath)
	case len(req.Content) > 0:
		return entity.NewDocumentFromBytes(req.Content, req.ContentType)
	default:
		return nil, fmt.Errorf("%w: file_path or content is required", common.ErrInvalidDocument)
	}
}

func parseStrategy(s string) constants.StrategyName {
	switch constants.StrategyName(s) {
	case constants.StrategyLocal, constants.StrategyCloud, constants.StrategyHybrid, constants.StrategyAuto:
		return constants.StrategyName(s)
	default:
		return constants.StrategyAuto
	}
}
