package srv

import (
	"github.com/ragdesk/ragdesk/pkg/ai"
)

type Srv struct {
	ai *AI
}

type ApplyFunc func(*Srv)

func SetupSrvs(opts ...ApplyFunc) *Srv {
	s := &Srv{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Srv) AI() ai.Driver {
	return s.ai.driver
}

// AIStatus 对外暴露当前模型接入状态，system/status 接口使用
func (s *Srv) AIStatus() map[string]interface{} {
	if s.ai == nil || s.ai.driver == nil {
		return map[string]interface{}{
			"status": "not_initialized",
		}
	}
	return map[string]interface{}{
		"status": "ready",
		"driver": s.ai.driver.Name(),
	}
}
