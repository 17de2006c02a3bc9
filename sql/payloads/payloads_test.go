package payloads

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/sql"
)

const testDestination = types.Domain(2)

func testPayload(i int) *types.Payload {
	leaf := types.CalcHash32([]byte{byte(i)})
	return &types.Payload{
		ID:              types.NewPayloadID(testDestination, leaf, 0),
		Destination:     testDestination,
		Leaf:            leaf,
		LeafIndex:       uint32(i),
		Calldata:        []byte{0xca, byte(i)},
		SuccessCriteria: []byte{0x5c, byte(i)},
		Status:          types.PayloadReadyToSubmit,
	}
}

func TestAddGetUpdate(t *testing.T) {
	db := sql.InMemory()
	defer db.Close()

	payload := testPayload(0)
	require.NoError(t, Add(db, payload))

	got, err := Get(db, payload.ID)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	has, err := Has(db, payload.ID)
	require.NoError(t, err)
	require.True(t, has)

	payload.Status = types.PayloadDropped
	payload.Reason = types.DropFailedSimulation
	require.NoError(t, Update(db, payload))
	got, err = Get(db, payload.ID)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	require.ErrorIs(t, Add(db, payload), sql.ErrObjectExists)

	missing := testPayload(99)
	_, err = Get(db, missing.ID)
	require.ErrorIs(t, err, sql.ErrNotFound)
	require.ErrorIs(t, Update(db, missing), sql.ErrNotFound)
	has, err = Has(db, missing.ID)
	require.NoError(t, err)
	require.False(t, has)
}

func TestByStatus(t *testing.T) {
	db := sql.InMemory()
	defer db.Close()

	ready := map[types.PayloadID]bool{}
	for i := 0; i < 6; i++ {
		payload := testPayload(i)
		if i%2 == 1 {
			payload.Status = types.PayloadInTransaction
		} else {
			ready[payload.ID] = true
		}
		require.NoError(t, Add(db, payload))
	}
	// Another destination's ready payload must not leak in.
	other := testPayload(7)
	other.Destination = types.Domain(3)
	other.ID = types.NewPayloadID(other.Destination, other.Leaf, 0)
	require.NoError(t, Add(db, other))

	got, err := ByStatus(db, testDestination, types.PayloadReadyToSubmit)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, payload := range got {
		require.True(t, ready[payload.ID])
		require.Equal(t, types.PayloadReadyToSubmit, payload.Status)
	}
}
