package escalate

import "fmt"

// Config holds escalation configuration
type Config struct {
	Backends   []string
	WebhookURL string
	Transport  Transport
}

// FromConfig creates an Escalator from configuration
func FromConfig(cfg Config) (Escalator, error) {
	var escalators []Escalator

	for _, backend := range cfg.Backends {
		switch backend {
		case "telegram":
			if cfg.Transport == nil {
				return nil, fmt.Errorf("telegram backend requires a transport")
			}
			escalators = append(escalators, NewTelegram(cfg.Transport))
		case "terminal":
			escalators = append(escalators, NewTerminal())
		case "webhook":
			if cfg.WebhookURL == "" {
				return nil, fmt.Errorf("webhook backend requires URL")
			}
			escalators = append(escalators, NewWebhook(cfg.WebhookURL))
		default:
			return nil, fmt.Errorf("unknown escalation backend: %s", backend)
		}
	}

	if len(escalators) == 0 {
		return NewTerminal(), nil
	}

	if len(escalators) == 1 {
		return escalators[0], nil
	}

	return NewMulti(escalators...), nil
}
