package memory

import (
	"testing"

	"finbox/internal/repository"
	"finbox/internal/repository/repotest"

	"github.com/stretchr/testify/suite"
)

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &repotest.StoreSuite{
		NewStore: func() repository.Store { return NewStore() },
	})
}
