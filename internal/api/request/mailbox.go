package request

type CreateMailbox struct {
	LocalPart   string `json:"local_part" validate:"required,min=1,max=64,excludes=@"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" validate:"required,min=8"`
}
