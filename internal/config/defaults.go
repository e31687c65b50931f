package config

import "github.com/mj1618/wingman/internal/model"

// DefaultPhoneProcesses are the process images of the phone-mirroring apps.
var DefaultPhoneProcesses = []string{
	"PhoneExperienceHost.exe",
	"YourPhone.exe",
	"YourPhoneAppProxy.exe",
	"iPhone Mirroring",
}

// Default returns a Config populated with default values.
func Default() *Config {
	chat := model.CropChat
	profile := model.CropProfile
	return &Config{
		Target: TargetConfig{
			Default:   "phone_link",
			PasteMode: PasteFocusPhoneLink,
		},
		Targets: TargetsConfig{
			PhoneLink: PhoneLinkTarget{
				ProcessNames: append([]string(nil), DefaultPhoneProcesses...),
				ChatCrop:     &chat,
				ProfileCrop:  &profile,
			},
			BrowserEdge:   BrowserTarget{ProcessName: "msedge.exe"},
			BrowserChrome: BrowserTarget{ProcessName: "chrome.exe"},
		},
		Scraping: ScrapingConfig{
			OCRFallback:     true,
			OCRLang:         "eng",
			OCRTimeoutSec:   30,
			MinChatLines:    10,
			MinProfileChars: 10,
			Capture: CaptureConfig{
				TryAllOutputs:  true,
				BlackThreshold: 6.0,
			},
			Accessibility: AccessibilityConfig{
				ChatMaxDepth:     4,
				ChatTextDepth:    2,
				ChatMinLines:     8,
				ProfileMaxDepth:  3,
				ProfileTextDepth: 1,
				ProfileMinLines:  5,
				ProfileMaxLines:  200,
				ProfileMaxChars:  3000,
			},
		},
		Model: ModelConfig{
			BaseURL:           "http://localhost:11434",
			ModelName:         "llama3.1:8b",
			Temperature:       0.6,
			MaxTokens:         512,
			UseTools:          true,
			RequestTimeoutSec: 120,
			RetryBackoffSec:   []int{2, 4, 8},
			MaxToolIterations: 6,
		},
		Vision: VisionConfig{
			BaseURL:           "http://localhost:11434",
			ModelName:         "llava:latest",
			RequestTimeoutSec: 45,
		},
		Input: InputConfig{
			TypePerCharDelayMs: 2,
			FocusSettleMs:      60,
		},
		AHK: AHKConfig{
			Enabled:       true,
			PasteStrategy: "auto",
		},
		Tools: ToolsConfig{
			DefaultTitleRegex: "Tinder|Phone Link|Your Phone|iPhone Mirroring",
		},
		UI: UIConfig{
			Tone:               "playful",
			AskQuestionDefault: "often",
			MaxReplyChars:      300,
		},
		Storage: StorageConfig{
			BaseDir:    "data",
			SQLitePath: "data/wingman.db",
			PeopleDir:  "data/people",
		},
		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "INFO",
		},
		Serve: ServeConfig{
			Transport:       "stdio",
			Port:            8080,
			CacheTTLSeconds: 2,
		},
	}
}
