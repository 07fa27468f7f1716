package bitnami

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/transform"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// captureSink records diagnostic lines for assertions.
type captureSink struct {
	lines []string
}

func (s *captureSink) Record(line string) {
	s.lines = append(s.lines, line)
}

func (s *captureSink) joined() string {
	out := ""
	for _, l := range s.lines {
		out += l + "\n"
	}

	return out
}

func newContext(secrets transform.SecretStore, overrides []string, sink *captureSink) *transform.Context {
	return transform.NewContext(secrets, transform.Config{}, overrides, sink)
}

// ---------------------------------------------------------------------------
// Metadata
// ---------------------------------------------------------------------------

func TestTransformMetadata(t *testing.T) {
	tr := New()
	assert.Equal(t, "bitnami", tr.Name())
	assert.Equal(t, transform.PriorityWorkaround, tr.Priority())
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestIsBitnamiImage(t *testing.T) {
	tests := []struct {
		name     string
		image    string
		fragment string
		want     bool
	}{
		{"bitnami redis", "bitnami/redis:7.2", "redis", true},
		{"bitnami legacy registry", "docker.io/bitnami/redis:7.2", "redis", true},
		{"stock redis", "redis:7-alpine", "redis", false},
		{"bitnami other family", "bitnami/postgresql:16", "redis", false},
		{"fragment without marker", "myorg/redis:1", "redis", false},
		{"case sensitive", "Bitnami/Redis:7", "redis", false},
		{"empty image", "", "redis", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &compose.Service{Image: tt.image}
			assert.Equal(t, tt.want, isBitnamiImage(svc, tt.fragment))
		})
	}
}

func TestApply_NonMatchingServicesUntouched(t *testing.T) {
	svc := &compose.Service{
		Image:       "nginx:1.27",
		Command:     []string{"nginx", "-g", "daemon off;"},
		Environment: map[string]string{"FOO": "bar"},
		Volumes:     []string{"./data/web:/usr/share/nginx/html"},
	}
	before := svc.Clone()

	services := map[string]*compose.Service{"web": svc}
	sink := &captureSink{}

	require.NoError(t, New().Apply(services, nil, newContext(nil, nil, sink)))

	assert.True(t, svc.Equal(before), "non-bitnami service must be byte-identical")
	assert.Empty(t, sink.lines)
}

func TestApply_ClassificationOrderRedisFirst(t *testing.T) {
	// An image reference containing two family fragments takes the first
	// match in redis → postgresql → keycloak order.
	svc := &compose.Service{Image: "bitnami/redis-postgresql-sidecar:1"}
	services := map[string]*compose.Service{"combo": svc}

	require.NoError(t, New().Apply(services, nil, newContext(nil, nil, &captureSink{})))

	assert.Equal(t, "redis:7-alpine", svc.Image)
}

// ---------------------------------------------------------------------------
// User overrides
// ---------------------------------------------------------------------------

func TestApply_OverriddenServiceNeverMutated(t *testing.T) {
	svc := &compose.Service{
		Image:       "bitnami/redis:7.2",
		Entrypoint:  []string{"/opt/bitnami/scripts/redis/entrypoint.sh"},
		Environment: map[string]string{"REDIS_PASSWORD": "x"},
	}
	before := svc.Clone()

	services := map[string]*compose.Service{"cache-redis-master": svc}
	sink := &captureSink{}

	tctx := newContext(nil, []string{"cache-redis-master"}, sink)
	require.NoError(t, New().Apply(services, nil, tctx))

	assert.True(t, svc.Equal(before))
	assert.Empty(t, sink.lines)
}

func TestApply_OverriddenInitCompanionNeverRemoved(t *testing.T) {
	services := map[string]*compose.Service{
		"auth-keycloak":                {Image: "bitnami/keycloak:23"},
		"auth-init-prepare-write-dirs": {Image: "bitnami/os-shell:12"},
	}

	tctx := newContext(nil, []string{"auth-init-prepare-write-dirs"}, &captureSink{})
	require.NoError(t, New().Apply(services, nil, tctx))

	assert.Contains(t, services, "auth-init-prepare-write-dirs")
}

// ---------------------------------------------------------------------------
// Redis repair
// ---------------------------------------------------------------------------

func TestRedis_EndToEndWithPassword(t *testing.T) {
	// Scenario: <release>-redis-master with the password in stringData.
	svc := &compose.Service{
		Image:       "bitnami/redis:7.2",
		Entrypoint:  []string{"/opt/bitnami/scripts/redis/entrypoint.sh"},
		Command:     []string{"/opt/bitnami/scripts/redis/run.sh"},
		Volumes:     []string{"redis-data:/bitnami/redis/data"},
		Environment: map[string]string{"ALLOW_EMPTY_PASSWORD": "no"},
	}
	services := map[string]*compose.Service{"cache-redis-master": svc}

	secrets := transform.SecretStore{
		"cache-redis": {StringData: map[string]string{"redis-password": "s3cret"}},
	}
	sink := &captureSink{}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, sink)))

	assert.Equal(t, "redis:7-alpine", svc.Image)
	assert.Nil(t, svc.Entrypoint)
	assert.Equal(t, []string{"redis-server", "--requirepass", "s3cret"}, svc.Command)
	assert.Equal(t, []string{"./data/cache-redis-master:/data"}, svc.Volumes)
	assert.Nil(t, svc.Environment)

	assert.Contains(t, sink.joined(), "password set from Secret 'cache-redis'")
}

func TestRedis_NoSecretRunsUnauthenticated(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/redis:7.2"}
	services := map[string]*compose.Service{"cache-redis-master": svc}
	sink := &captureSink{}

	require.NoError(t, New().Apply(services, nil, newContext(transform.SecretStore{}, nil, sink)))

	assert.Equal(t, []string{"redis-server"}, svc.Command)
	assert.Contains(t, sink.joined(), "no redis-password found, running without auth")
}

func TestRedis_SecretWithoutPasswordKey(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/redis:7.2"}
	services := map[string]*compose.Service{"cache-redis-master": svc}

	secrets := transform.SecretStore{
		"cache-redis": {StringData: map[string]string{"some-other-key": "x"}},
	}
	sink := &captureSink{}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, sink)))

	assert.Equal(t, []string{"redis-server"}, svc.Command)
	assert.Contains(t, sink.joined(), "running without auth")
}

func TestRedis_SecretCandidatePriority(t *testing.T) {
	// The most specific candidate wins: <prefix>-redis before <prefix>.
	svc := &compose.Service{Image: "bitnami/redis:7.2"}
	services := map[string]*compose.Service{"app-redis-master": svc}

	secrets := transform.SecretStore{
		"app-redis": {StringData: map[string]string{"redis-password": "specific"}},
		"app":       {StringData: map[string]string{"redis-password": "generic"}},
	}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, &captureSink{})))

	assert.Equal(t, []string{"redis-server", "--requirepass", "specific"}, svc.Command)
}

func TestRedis_PrefixStripping(t *testing.T) {
	tests := []struct {
		svcName    string
		secretName string
	}{
		// -redis-master is stripped first.
		{"cache-redis-master", "cache-redis"},
		// plain -master fallback.
		{"cache-master", "cache-redis"},
		// no suffix at all: prefix equals the service name.
		{"cache", "cache-redis"},
		// literal service name is the last candidate.
		{"cache-redis-master", "cache-redis-master"},
	}
	for _, tt := range tests {
		t.Run(tt.svcName+"→"+tt.secretName, func(t *testing.T) {
			svc := &compose.Service{Image: "bitnami/redis:7.2"}
			services := map[string]*compose.Service{tt.svcName: svc}

			secrets := transform.SecretStore{
				tt.secretName: {StringData: map[string]string{"redis-password": "pw"}},
			}

			require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, &captureSink{})))
			assert.Equal(t, []string{"redis-server", "--requirepass", "pw"}, svc.Command)
		})
	}
}

func TestRedis_PasswordFromBase64Data(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/redis:7.2"}
	services := map[string]*compose.Service{"cache-redis-master": svc}

	secrets := transform.SecretStore{
		// "s3cret" base64-encoded.
		"cache-redis": {Data: map[string]string{"redis-password": "czNjcmV0"}},
	}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, &captureSink{})))

	assert.Equal(t, []string{"redis-server", "--requirepass", "s3cret"}, svc.Command)
}

func TestRedis_RepairIsIdempotent(t *testing.T) {
	svc := &compose.Service{
		Image:       "bitnami/redis:7.2",
		Entrypoint:  []string{"/entrypoint.sh"},
		Environment: map[string]string{"X": "y"},
	}

	secrets := transform.SecretStore{
		"cache-redis": {StringData: map[string]string{"redis-password": "pw"}},
	}
	tctx := newContext(secrets, nil, &captureSink{})

	fixRedis("cache-redis-master", svc, tctx)
	first := svc.Clone()

	fixRedis("cache-redis-master", svc, tctx)

	assert.Equal(t, first.Image, svc.Image)
	assert.Equal(t, first.Command, svc.Command)
	assert.Equal(t, first.Volumes, svc.Volumes)
	assert.Nil(t, svc.Entrypoint)
	assert.Nil(t, svc.Environment)
}

func TestRedis_CustomVolumeRoot(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/redis:7.2"}
	services := map[string]*compose.Service{"cache-redis-master": svc}

	tctx := transform.NewContext(nil, transform.Config{VolumeRoot: "/srv/state"}, nil, &captureSink{})
	require.NoError(t, New().Apply(services, nil, tctx))

	assert.Equal(t, []string{"/srv/state/cache-redis-master:/data"}, svc.Volumes)
}

// ---------------------------------------------------------------------------
// PostgreSQL repair
// ---------------------------------------------------------------------------

func TestPostgreSQL_VolumesOnly(t *testing.T) {
	svc := &compose.Service{
		Image:       "bitnami/postgresql:16",
		Command:     []string{"/opt/bitnami/scripts/postgresql/run.sh"},
		Environment: map[string]string{"POSTGRESQL_PASSWORD_FILE": "/opt/bitnami/postgresql/secrets/password"},
		Volumes:     []string{"pg-data:/bitnami/postgresql"},
	}
	services := map[string]*compose.Service{"db-postgresql": svc}
	sink := &captureSink{}

	require.NoError(t, New().Apply(services, nil, newContext(nil, nil, sink)))

	assert.Equal(t, []string{
		"./data/db-postgresql:/bitnami/postgresql",
		"./secrets/db-postgresql:/opt/bitnami/postgresql/secrets:ro",
	}, svc.Volumes)

	// Nothing but volumes changes for the postgresql family.
	assert.Equal(t, "bitnami/postgresql:16", svc.Image)
	assert.Equal(t, []string{"/opt/bitnami/scripts/postgresql/run.sh"}, svc.Command)
	assert.Equal(t, map[string]string{"POSTGRESQL_PASSWORD_FILE": "/opt/bitnami/postgresql/secrets/password"}, svc.Environment)

	assert.Contains(t, sink.joined(), "data volume → /bitnami/postgresql")
	assert.Contains(t, sink.joined(), "secrets mount → /opt/bitnami/postgresql/secrets")
}

// ---------------------------------------------------------------------------
// Keycloak repair
// ---------------------------------------------------------------------------

func TestKeycloak_EndToEnd(t *testing.T) {
	services := map[string]*compose.Service{
		"auth-keycloak":                {Image: "bitnami/keycloak:23"},
		"auth-init-prepare-write-dirs": {Image: "bitnami/os-shell:12"},
		"auth-postgresql":              {Image: "postgres:16"},
	}

	secrets := transform.SecretStore{
		"auth-keycloak":       {StringData: map[string]string{"admin-password": "adminpw"}},
		"keycloak-postgresql": {StringData: map[string]string{"password": "dbpw"}},
	}
	sink := &captureSink{}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, sink)))

	kc := services["auth-keycloak"]
	require.NotNil(t, kc)
	assert.Equal(t, map[string]string{
		"KC_BOOTSTRAP_ADMIN_PASSWORD": "adminpw",
		"KC_DB_PASSWORD":              "dbpw",
	}, kc.Environment)

	assert.NotContains(t, services, "auth-init-prepare-write-dirs")
	assert.Contains(t, services, "auth-postgresql")

	out := sink.joined()
	assert.Contains(t, out, "KC_BOOTSTRAP_ADMIN_PASSWORD set from Secret 'auth-keycloak'")
	assert.Contains(t, out, "KC_DB_PASSWORD set from Secret 'keycloak-postgresql'")
	assert.Contains(t, out, "auth-init-prepare-write-dirs: removed (emptyDir copy fails in compose)")
}

func TestKeycloak_ServiceNamedExactlyKeycloak(t *testing.T) {
	// Stripping the product name yields an empty prefix; the prefix-derived
	// candidate is skipped and the literal name resolves.
	svc := &compose.Service{Image: "bitnami/keycloak:23"}
	services := map[string]*compose.Service{"keycloak": svc}

	secrets := transform.SecretStore{
		"keycloak": {StringData: map[string]string{"admin-password": "pw"}},
	}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, &captureSink{})))

	assert.Equal(t, "pw", svc.Environment["KC_BOOTSTRAP_ADMIN_PASSWORD"])
}

func TestKeycloak_PrefixedDatabaseSecretWins(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/keycloak:23"}
	services := map[string]*compose.Service{"auth-keycloak": svc}

	secrets := transform.SecretStore{
		"auth-postgresql":     {StringData: map[string]string{"password": "prefixed"}},
		"keycloak-postgresql": {StringData: map[string]string{"password": "generic"}},
	}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, &captureSink{})))

	assert.Equal(t, "prefixed", svc.Environment["KC_DB_PASSWORD"])
}

func TestKeycloak_MissingSecretsLeaveEnvironmentAbsent(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/keycloak:23"}
	services := map[string]*compose.Service{"auth-keycloak": svc}

	require.NoError(t, New().Apply(services, nil, newContext(transform.SecretStore{}, nil, &captureSink{})))

	assert.Nil(t, svc.Environment)
}

func TestKeycloak_MissingAdminKeySetsOnlyDBPassword(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/keycloak:23"}
	services := map[string]*compose.Service{"auth-keycloak": svc}

	secrets := transform.SecretStore{
		"auth-keycloak":       {StringData: map[string]string{"tls-password": "x"}},
		"keycloak-postgresql": {StringData: map[string]string{"password": "dbpw"}},
	}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, &captureSink{})))

	assert.Equal(t, map[string]string{"KC_DB_PASSWORD": "dbpw"}, svc.Environment)
}

func TestKeycloak_EmptySecretValuesTreatedAsAbsent(t *testing.T) {
	svc := &compose.Service{Image: "bitnami/keycloak:23"}
	services := map[string]*compose.Service{"auth-keycloak": svc}

	secrets := transform.SecretStore{
		"auth-keycloak":       {StringData: map[string]string{"admin-password": ""}},
		"keycloak-postgresql": {StringData: map[string]string{"password": ""}},
	}
	sink := &captureSink{}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, sink)))

	assert.Nil(t, svc.Environment)
	assert.Empty(t, sink.lines)
}

func TestKeycloak_ExistingEnvironmentPreserved(t *testing.T) {
	svc := &compose.Service{
		Image:       "bitnami/keycloak:23",
		Environment: map[string]string{"KC_HTTP_ENABLED": "true"},
	}
	services := map[string]*compose.Service{"auth-keycloak": svc}

	secrets := transform.SecretStore{
		"auth-keycloak": {StringData: map[string]string{"admin-password": "pw"}},
	}

	require.NoError(t, New().Apply(services, nil, newContext(secrets, nil, &captureSink{})))

	assert.Equal(t, "true", svc.Environment["KC_HTTP_ENABLED"])
	assert.Equal(t, "pw", svc.Environment["KC_BOOTSTRAP_ADMIN_PASSWORD"])
}

func TestKeycloak_RemovesAllMatchingInitCompanions(t *testing.T) {
	services := map[string]*compose.Service{
		"auth-keycloak":                  {Image: "bitnami/keycloak:23"},
		"auth-init-prepare-write-dirs":   {Image: "bitnami/os-shell:12"},
		"auth-0-init-prepare-write-dirs": {Image: "bitnami/os-shell:12"},
		"other-init-prepare-write-dirs":  {Image: "bitnami/os-shell:12"},
	}

	require.NoError(t, New().Apply(services, nil, newContext(nil, nil, &captureSink{})))

	assert.NotContains(t, services, "auth-init-prepare-write-dirs")
	assert.NotContains(t, services, "auth-0-init-prepare-write-dirs")
	// Companions of unrelated groups stay.
	assert.Contains(t, services, "other-init-prepare-write-dirs")
}
