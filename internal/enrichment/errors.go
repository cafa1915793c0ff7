package enrichment

import "errors"

var errNoFrameExtractor = errors.New("no frame extractor configured")
