// Package bitnami works around Bitnami Redis, PostgreSQL, and Keycloak
// images in the compose working set. The Bitnami variants assume Kubernetes
// conveniences (projected secret files, init containers, emptyDir volumes)
// that plain compose does not provide, so affected services are rewritten
// to run without them. Every modification is reported through the
// diagnostic sink.
package bitnami

import (
	"sort"
	"strings"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/transform"
)

// redisImage is the stock replacement for the Bitnami Redis image.
const redisImage = "redis:7-alpine"

// initMarker identifies the Bitnami Keycloak prepare-write-dirs init
// service, which copies files into an emptyDir and fails fast in compose.
const initMarker = "init-prepare-write-dirs"

// Transform is the Bitnami workaround stage.
type Transform struct{}

// New creates the Bitnami workaround transform.
func New() *Transform {
	return &Transform{}
}

// Name returns the stable transform identifier.
func (t *Transform) Name() string { return "bitnami" }

// Priority places the transform after the manifest-shape converters and
// before the internal-URL flattening stage.
func (t *Transform) Priority() int { return transform.PriorityWorkaround }

// Apply classifies every service by image family and dispatches the
// matching repair. Classification order is fixed: redis, then postgresql,
// then keycloak; the first match wins. Iteration works on a sorted name
// snapshot because the keycloak repair deletes companion services.
func (t *Transform) Apply(services map[string]*compose.Service, _ []transform.IngressEntry, tctx *transform.Context) error {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		svc, ok := services[name]
		if !ok {
			// Already removed as a keycloak init companion.
			continue
		}

		if tctx.Overridden(name) {
			// User override takes precedence.
			continue
		}

		switch {
		case isBitnamiImage(svc, "redis"):
			fixRedis(name, svc, tctx)
		case isBitnamiImage(svc, "postgresql"):
			fixPostgreSQL(name, svc, tctx)
		case isBitnamiImage(svc, "keycloak"):
			fixKeycloak(name, svc, tctx)
			removeKeycloakInit(name, services, tctx)
		}
	}

	return nil
}

// isBitnamiImage reports whether the service uses a Bitnami image matching
// nameFragment. Both checks are plain case-sensitive substring containment
// on the image reference.
func isBitnamiImage(svc *compose.Service, nameFragment string) bool {
	return strings.Contains(svc.Image, "bitnami") && strings.Contains(svc.Image, nameFragment)
}

// fixRedis replaces Bitnami Redis with stock redis:7-alpine. The Bitnami
// entrypoint reads the password from a projected secret file, so the
// password is resolved from the secret store and passed on the command
// line instead.
func fixRedis(name string, svc *compose.Service, tctx *transform.Context) {
	// The secret is typically <prefix>-redis where the service name is
	// <prefix>-redis-master.
	prefix := name
	if p, ok := strings.CutSuffix(prefix, "-redis-master"); ok {
		prefix = p
	} else if p, ok := strings.CutSuffix(prefix, "-master"); ok {
		prefix = p
	}

	secName, secret, found := tctx.Secrets().Resolve(prefix+"-redis", prefix, name)

	var password string
	if found {
		password, _ = secret.Value("redis-password")
	}

	svc.Image = redisImage
	tctx.Recordf("  [bitnami] %s: image → %s", name, redisImage)

	svc.Entrypoint = nil
	tctx.Recordf("  [bitnami] %s: removed Bitnami entrypoint", name)

	cmd := []string{"redis-server"}
	if password != "" {
		cmd = append(cmd, "--requirepass", password)
		tctx.Recordf("  [bitnami] %s: password set from Secret '%s'", name, secName)
	} else {
		tctx.Recordf("  [bitnami] %s: ⚠ no redis-password found, running without auth", name)
	}

	svc.Command = cmd

	volume := tctx.VolumeRoot() + "/" + name + ":/data"
	svc.Volumes = []string{volume}
	tctx.Recordf("  [bitnami] %s: volume → %s", name, volume)

	svc.Environment = nil
	tctx.Recordf("  [bitnami] %s: removed Bitnami environment", name)
}

// fixPostgreSQL rewrites the volume mounts of Bitnami PostgreSQL. The image
// itself runs fine in compose; only its data directory and secrets
// directory expectations need bind mounts.
func fixPostgreSQL(name string, svc *compose.Service, tctx *transform.Context) {
	volumes := []string{tctx.VolumeRoot() + "/" + name + ":/bitnami/postgresql"}
	tctx.Recordf("  [bitnami] %s: data volume → /bitnami/postgresql", name)

	volumes = append(volumes, "./secrets/"+name+":/opt/bitnami/postgresql/secrets:ro")
	tctx.Recordf("  [bitnami] %s: secrets mount → /opt/bitnami/postgresql/secrets", name)

	svc.Volumes = volumes
}

// fixKeycloak injects the admin and database passwords as environment
// variables. The Bitnami entrypoint reads them from projected secret
// files, which do not exist in compose. Empty secret values count as
// absent and leave the variable unset.
func fixKeycloak(name string, svc *compose.Service, tctx *transform.Context) {
	prefix := strings.ReplaceAll(name, "-keycloak", "")
	prefix = strings.ReplaceAll(prefix, "keycloak", "")
	prefix = strings.Trim(prefix, "-")

	candidates := []string{name, "keycloak"}
	if prefix != "" {
		candidates = []string{prefix + "-keycloak", name, "keycloak"}
	}

	secName, secret, found := tctx.Secrets().Resolve(candidates...)
	if found {
		if adminPw, ok := secret.Value("admin-password"); ok && adminPw != "" {
			setEnv(svc, "KC_BOOTSTRAP_ADMIN_PASSWORD", adminPw)
			tctx.Recordf("  [bitnami] %s: KC_BOOTSTRAP_ADMIN_PASSWORD set from Secret '%s'", name, secName)
		}
	}

	dbCandidates := []string{"keycloak-postgresql"}
	if prefix != "" {
		dbCandidates = []string{prefix + "-postgresql", "keycloak-postgresql"}
	}

	dbSecName, dbSecret, dbFound := tctx.Secrets().Resolve(dbCandidates...)
	if dbFound {
		if dbPw, ok := dbSecret.Value("password"); ok && dbPw != "" {
			setEnv(svc, "KC_DB_PASSWORD", dbPw)
			tctx.Recordf("  [bitnami] %s: KC_DB_PASSWORD set from Secret '%s'", name, dbSecName)
		}
	}
}

// removeKeycloakInit deletes the Bitnami prepare-write-dirs init services
// that belong to the named keycloak service. The init copies files into an
// emptyDir volume and would fail fast in compose, blocking startup of the
// whole group. Candidates are collected from a snapshot before deleting.
func removeKeycloakInit(name string, services map[string]*compose.Service, tctx *transform.Context) {
	fragment := strings.ReplaceAll(name, "-keycloak", "")

	var toRemove []string

	for svcName := range services {
		if strings.Contains(svcName, fragment) && strings.Contains(svcName, initMarker) {
			toRemove = append(toRemove, svcName)
		}
	}

	sort.Strings(toRemove)

	for _, svcName := range toRemove {
		if tctx.Overridden(svcName) {
			continue
		}

		delete(services, svcName)
		tctx.Recordf("  [bitnami] %s: removed (emptyDir copy fails in compose)", svcName)
	}
}

// setEnv sets one environment variable, creating the mapping if absent.
func setEnv(svc *compose.Service, key, value string) {
	if svc.Environment == nil {
		svc.Environment = make(map[string]string)
	}

	svc.Environment[key] = value
}
