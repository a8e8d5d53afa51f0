package registry

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/depls-dev/depls"
)

// NuGetAdapter queries the NuGet v3 flat-container index, used for C#
// .csproj PackageReference dependencies.
type NuGetAdapter struct {
	Client *http.Client
}

func NewNuGetAdapter(client *http.Client) *NuGetAdapter { return &NuGetAdapter{Client: client} }

type nugetIndex struct {
	Versions []string `json:"versions"`
}

func (a *NuGetAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	lower := strings.ToLower(name)
	url := fmt.Sprintf("https://api.nuget.org/v3-flatcontainer/%s/index.json", lower)
	var idx nugetIndex
	if err := getJSON(ctx, a.Client, url, nil, &idx); err != nil {
		return depls.VersionInfo{}, err
	}
	if len(idx.Versions) == 0 {
		return depls.VersionInfo{}, &depls.Error{Op: "nuget.GetVersionInfo", Kind: depls.ErrMiss, Message: "no versions for " + name}
	}

	versions := append([]string(nil), idx.Versions...)
	sort.Slice(versions, func(i, j int) bool { return semverLess(versions[j], versions[i]) })

	vi := depls.VersionInfo{AllVersions: versions}
	for _, v := range versions {
		if isNuGetPrerelease(v) {
			continue
		}
		vi.LatestStable = v
		break
	}
	return vi, nil
}

func isNuGetPrerelease(v string) bool {
	return strings.Contains(v, "-")
}
