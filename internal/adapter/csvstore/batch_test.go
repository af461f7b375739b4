package csvstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

const batchHeaderLine = "Depuis,Vers,Chargement,Masse,Distance planifiée,Distance acceptée,Ravitaillé,Coût du carburant,Consommation moyenne,Vitesse maximale atteinte,Bénéfice,Amendes,Camion,Plaque d'immatriculation du camion,Temps pris (réel) [s],Date"

func writeBatch(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.csv")
	content := strings.Join(append([]string{batchHeaderLine}, lines...), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadBatch(t *testing.T) {
	path := writeBatch(t,
		"Lyon,Berlin,Grumes,17 587 kg,1 054 km,1 071 km,452 l,723 €,31.4 l/100km,87 km/h,45 230 €,0 €,Scania R,ID:AB-123-CD),38556,03/05/2026 14:10",
		"Berlin,Lyon,Verre,8 900 kg,1 054 km,1 060 km,430 l,690 €,29.8 l/100km,84 km/h,31 560 €,250 €,Scania R,ID:AB-123-CD),37100,05/05/2026 09:45",
	)

	trips, err := ReadBatch(path)
	require.NoError(t, err)
	require.Len(t, trips, 2)

	assert.Equal(t, "Lyon", trips[0].Origin)
	assert.Equal(t, 17587, trips[0].Mass)
	assert.Equal(t, 1054, trips[0].PlannedDistance)
	assert.Equal(t, "AB-123-CD", trips[0].Plate)
	assert.Equal(t, 250, trips[1].Fines)
}

func TestReadBatch_MalformedFieldRejectsWholeBatch(t *testing.T) {
	path := writeBatch(t,
		"Lyon,Berlin,Grumes,17 587 kg,1 054 km,1 071 km,452 l,723 €,31.4 l/100km,87 km/h,45 230 €,0 €,Scania R,ID:AB-123-CD),38556,03/05/2026 14:10",
		"Berlin,Lyon,Verre,not a mass,1 054 km,1 060 km,430 l,690 €,29.8 l/100km,84 km/h,31 560 €,250 €,Scania R,ID:AB-123-CD),37100,05/05/2026 09:45",
	)

	_, err := ReadBatch(path)
	require.Error(t, err)

	var fieldErr *domain.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Masse", fieldErr.Column)
	assert.Equal(t, 2, fieldErr.Row)
}

func TestReadBatch_RejectsUnexpectedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte("From,To\nLyon,Berlin\n"), 0o644))

	_, err := ReadBatch(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestReadBatch_MissingFile(t *testing.T) {
	_, err := ReadBatch(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
