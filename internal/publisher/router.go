package publisher

import "geyser/domain"

// Router resolves destination topics. It is pure: the result depends only on the
// configuration and, for account updates, the owning program.
type Router struct {
	updateAccountTopic     string
	slotStatusTopic        string
	transactionTopic       string
	publishSeparateProgram bool
}

func NewRouter(cfg Config) Router {
	return Router{
		updateAccountTopic:     cfg.UpdateAccountTopic,
		slotStatusTopic:        cfg.SlotStatusTopic,
		transactionTopic:       cfg.TransactionTopic,
		publishSeparateProgram: cfg.PublishSeparateProgram,
	}
}

// AccountTopic appends the base58 owner to the base topic unless PublishSeparateProgram
// is set, in which case every account update shares the base topic.
func (r Router) AccountTopic(ev *domain.AccountUpdateEvent) string {
	if r.publishSeparateProgram {
		return r.updateAccountTopic
	}
	return r.updateAccountTopic + "-" + ev.Owner.String()
}

func (r Router) SlotStatusTopic() string {
	return r.slotStatusTopic
}

func (r Router) TransactionTopic() string {
	return r.transactionTopic
}
