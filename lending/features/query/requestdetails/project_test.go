package requestdetails_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestdetails"
)

var fakeClock = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func givenHistory() core.DomainEvents {
	return core.DomainEvents{
		core.BuildLendingRequested(core.NewRequest{
			RequestID: "T1", RequesterID: "alice", RequestedItemID: "I1", OwnerID: "owner", Mode: core.ModeFree,
		}, fakeClock),
		core.BuildLendingRequestApproved("T1", "I1", "owner", fakeClock.Add(time.Hour)),
	}
}

func Test_Project_VisibleToRequesterAndOwner(t *testing.T) {
	for _, actor := range []string{"alice", "owner"} {
		request, err := requestdetails.Project(givenHistory(), requestdetails.BuildQuery("T1", actor))

		require.NoError(t, err)
		assert.Equal(t, core.RequestApproved, request.Status)
		assert.Equal(t, fakeClock.Add(time.Hour), request.UpdatedAt)
	}
}

func Test_Project_Errors(t *testing.T) {
	_, err := requestdetails.Project(givenHistory(), requestdetails.BuildQuery("T1", "mallory"))
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = requestdetails.Project(givenHistory(), requestdetails.BuildQuery("T2", "alice"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}
