package repository

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/svasthya/ayurcare"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	migFS, err := fs.Sub(ayurcare.GetMigrationsFS(), "data/sql/migrations")
	require.NoError(t, err)

	entries, err := fs.ReadDir(migFS, ".")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		contents, err := fs.ReadFile(migFS, name)
		require.NoError(t, err)
		_, err = bunDB.Exec(string(contents))
		require.NoError(t, err, "migration %s", name)
	}

	return bunDB
}

func doctorAccount(email, license string) *ayurcare.Account {
	return &ayurcare.Account{
		Name:  "Dr. Asha Rao",
		Email: email,
		Role:  ayurcare.RoleDoctor,
		Doctor: &ayurcare.DoctorExtension{
			LicenseNo: license,
			Hospital:  "Svasthya Clinic",
			Specialty: "Panchakarma",
		},
	}
}

func patientAccount(name, email string) *ayurcare.Account {
	return &ayurcare.Account{
		Name:  name,
		Email: email,
		Role:  ayurcare.RolePatient,
		Patient: &ayurcare.PatientExtension{
			Dosha:    ayurcare.DoshaVata,
			CareMode: ayurcare.CareModeOnline,
		},
	}
}

func TestAccountsRepository_Register(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(setupDB(t))

	created, err := repo.Register(ctx, doctorAccount("asha@example.com", "KA-12345"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, ayurcare.RoleDoctor, created.Role)
	require.NotNil(t, created.Doctor)
	assert.Equal(t, "KA-12345", created.Doctor.LicenseNo)

	t.Run("duplicate email differs only by case", func(t *testing.T) {
		_, err := repo.Register(ctx, doctorAccount("ASHA@Example.COM", "KA-99999"))
		assert.ErrorIs(t, err, ayurcare.ErrDuplicateIdentity)
	})

	t.Run("duplicate license number", func(t *testing.T) {
		_, err := repo.Register(ctx, doctorAccount("second@example.com", "KA-12345"))
		assert.ErrorIs(t, err, ayurcare.ErrDuplicateIdentity)
	})

	t.Run("patients carry no license and never collide on it", func(t *testing.T) {
		_, err := repo.Register(ctx, patientAccount("Ravi Kumar", "ravi@example.com"))
		require.NoError(t, err)
		_, err = repo.Register(ctx, patientAccount("Meena Iyer", "meena@example.com"))
		require.NoError(t, err)
	})
}

func TestAccountsRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(setupDB(t))

	account := doctorAccount("asha@example.com", "KA-12345")
	account.PasswordHash = "$2a$14$fakehashfortest"
	created, err := repo.Register(ctx, account)
	require.NoError(t, err)

	t.Run("get by email is case insensitive", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "Asha@EXAMPLE.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "$2a$14$fakehashfortest", found.PasswordHash)
	})

	t.Run("get by email unknown", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ayurcare.ErrIdentityNotFound)
	})

	t.Run("get by id keeps credentials", func(t *testing.T) {
		found, err := repo.GetAccountByID(ctx, created.ID.String())
		require.NoError(t, err)
		assert.NotEmpty(t, found.PasswordHash)
	})

	t.Run("session account drops credentials", func(t *testing.T) {
		found, err := repo.GetSessionAccount(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Empty(t, found.PasswordHash)
		assert.Empty(t, found.RefreshToken)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := repo.GetAccountByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ayurcare.ErrIdentityNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetAccountByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ayurcare.ErrIdentityNotFound)
	})
}

func TestAccountsRepository_AssignDoctor(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(setupDB(t))

	doctor, err := repo.Register(ctx, doctorAccount("asha@example.com", "KA-12345"))
	require.NoError(t, err)

	ravi, err := repo.Register(ctx, patientAccount("Ravi Kumar", "ravi@example.com"))
	require.NoError(t, err)
	meena, err := repo.Register(ctx, patientAccount("Meena Iyer", "meena@example.com"))
	require.NoError(t, err)

	require.NoError(t, repo.AssignDoctor(ctx, ravi.ID.String(), doctor.ID.String()))
	require.NoError(t, repo.AssignDoctor(ctx, meena.ID.String(), doctor.ID.String()))

	t.Run("roster is ordered by name", func(t *testing.T) {
		roster, err := repo.ListPatientsOfDoctor(ctx, doctor.ID.String())
		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "Meena Iyer", roster[0].Name)
		assert.Equal(t, "Ravi Kumar", roster[1].Name)
		for _, p := range roster {
			assert.Empty(t, p.PasswordHash)
			assert.Equal(t, doctor.ID.String(), p.Patient.AssignedDoctorID)
		}
	})

	t.Run("assignment set at registration lands on the roster", func(t *testing.T) {
		admitted := patientAccount("Leela Nair", "leela@example.com")
		admitted.Patient.AssignedDoctorID = doctor.ID.String()

		_, err := repo.Register(ctx, admitted)
		require.NoError(t, err)

		roster, err := repo.ListPatientsOfDoctor(ctx, doctor.ID.String())
		require.NoError(t, err)

		names := make([]string, 0, len(roster))
		for _, p := range roster {
			names = append(names, p.Name)
		}
		assert.Contains(t, names, "Leela Nair")
	})

	t.Run("reassignment overwrites", func(t *testing.T) {
		second, err := repo.Register(ctx, doctorAccount("second@example.com", "KA-67890"))
		require.NoError(t, err)

		require.NoError(t, repo.AssignDoctor(ctx, ravi.ID.String(), second.ID.String()))

		roster, err := repo.ListPatientsOfDoctor(ctx, second.ID.String())
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, "Ravi Kumar", roster[0].Name)
	})

	t.Run("doctors cannot be assignment targets", func(t *testing.T) {
		err := repo.AssignDoctor(ctx, doctor.ID.String(), doctor.ID.String())
		assert.ErrorIs(t, err, ayurcare.ErrIdentityNotFound)
	})

	t.Run("unknown patient", func(t *testing.T) {
		err := repo.AssignDoctor(ctx, uuid.NewString(), doctor.ID.String())
		assert.ErrorIs(t, err, ayurcare.ErrIdentityNotFound)
	})

	t.Run("empty roster", func(t *testing.T) {
		roster, err := repo.ListPatientsOfDoctor(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, roster)
	})
}

func TestAccountsRepository_RefreshToken(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountsRepository(setupDB(t))

	account, err := repo.Register(ctx, patientAccount("Ravi Kumar", "ravi@example.com"))
	require.NoError(t, err)
	id := account.ID.String()

	t.Run("save and read back", func(t *testing.T) {
		require.NoError(t, repo.SaveRefreshToken(ctx, id, "token-one"))

		token, err := repo.GetRefreshToken(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "token-one", token)
	})

	t.Run("save overwrites the single slot", func(t *testing.T) {
		require.NoError(t, repo.SaveRefreshToken(ctx, id, "token-two"))

		token, err := repo.GetRefreshToken(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "token-two", token)
	})

	t.Run("clear empties the slot", func(t *testing.T) {
		require.NoError(t, repo.ClearRefreshToken(ctx, id))

		token, err := repo.GetRefreshToken(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("unknown account", func(t *testing.T) {
		err := repo.SaveRefreshToken(ctx, uuid.NewString(), "token")
		assert.ErrorIs(t, err, ayurcare.ErrIdentityNotFound)

		_, err = repo.GetRefreshToken(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ayurcare.ErrIdentityNotFound)
	})
}
