package memory

import "github.com/lalith-99/visaflow/internal/repository"

var (
	_ repository.ClientRepository      = (*ClientStore)(nil)
	_ repository.ApplicationRepository = (*ApplicationStore)(nil)
	_ ActiveApplicationSetter          = (*ClientStore)(nil)
)
