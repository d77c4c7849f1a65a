package core

type Services struct {
	Account      *AccountService
	Directory    *TenantDirectoryService
	Admission    *AdmissionService
	Domain       *DomainService
	Mailbox      *MailboxService
	Subscription *SubscriptionService
	Message      *MessageService
	Dashboard    *DashboardService
	Search       *SearchService
}

func NewServices(db DB, resolver Resolver) *Services {
	return &Services{
		Account:      NewAccountService(db),
		Directory:    NewTenantDirectoryService(db),
		Admission:    NewAdmissionService(db),
		Domain:       NewDomainService(db, resolver),
		Mailbox:      NewMailboxService(db),
		Subscription: NewSubscriptionService(db),
		Message:      NewMessageService(db),
		Dashboard:    NewDashboardService(db),
		Search:       NewSearchService(db),
	}
}
