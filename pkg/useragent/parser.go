// Package useragent classifies User-Agent strings for access analytics.
package useragent

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps the uap-go parser with device type classification.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo is the parsed classification of a User-Agent string.
type DeviceInfo struct {
	DeviceType string // mobile, desktop, tablet, bot, unknown
	Browser    string
	OS         string
}

var (
	globalParser *Parser
	globalMu     sync.RWMutex
)

// NewParser loads the uap-core regexes file and builds a parser.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if _, err := os.Stat(regexFilePath); err != nil {
		return nil, fmt.Errorf("regexes file not found at %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.New(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load User-Agent regexes: %w", err)
	}

	return &Parser{parser: parser, log: log}, nil
}

// InitGlobalParser installs the process-wide parser used by DetectDeviceType.
func InitGlobalParser(regexFilePath string, log *zap.Logger) error {
	parser, err := NewParser(regexFilePath, log)
	if err != nil {
		return err
	}

	globalMu.Lock()
	globalParser = parser
	globalMu.Unlock()

	log.Info("User-Agent parser initialized", zap.String("regexes", regexFilePath))
	return nil
}

// Parse classifies a single User-Agent string.
func (p *Parser) Parse(userAgent string) DeviceInfo {
	client := p.parser.Parse(userAgent)

	info := DeviceInfo{
		DeviceType: classify(userAgent, client.Device.Family),
		Browser:    client.UserAgent.Family,
		OS:         client.Os.Family,
	}
	return info
}

// DetectDeviceType returns the device type for a User-Agent string, using
// the global parser when available and a keyword heuristic otherwise.
func DetectDeviceType(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}

	globalMu.RLock()
	parser := globalParser
	globalMu.RUnlock()

	if parser != nil {
		return parser.Parse(userAgent).DeviceType
	}
	return classify(userAgent, "")
}

func classify(userAgent, deviceFamily string) string {
	ua := strings.ToLower(userAgent)
	family := strings.ToLower(deviceFamily)

	if strings.Contains(ua, "bot") || strings.Contains(ua, "spider") ||
		strings.Contains(ua, "crawler") || strings.Contains(family, "spider") {
		return "bot"
	}

	for _, keyword := range []string{"tablet", "ipad", "kindle", "silk", "playbook"} {
		if strings.Contains(ua, keyword) {
			return "tablet"
		}
	}

	for _, keyword := range []string{"mobile", "android", "iphone", "ipod", "blackberry", "windows phone", "opera mini"} {
		if strings.Contains(ua, keyword) {
			return "mobile"
		}
	}

	return "desktop"
}
