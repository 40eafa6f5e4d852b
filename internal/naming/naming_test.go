package naming

import "testing"

func TestContainerName(t *testing.T) {
	cases := []struct {
		owner string
		image string
		want  string
	}{
		{owner: "alpha", image: "httpd:latest", want: "httpd_2c1743a391"},
		{owner: "alpha", image: "httpd", want: "httpd_2c1743a391"},
		{owner: "bravo", image: "httpd:latest", want: "httpd_fd9ab41e47"},
		{owner: "alpha", image: "nginx:1.27", want: "nginx_2c1743a391"},
	}

	for _, tc := range cases {
		if got := ContainerName(tc.owner, tc.image); got != tc.want {
			t.Errorf("ContainerName(%q, %q) = %q, want %q", tc.owner, tc.image, got, tc.want)
		}
	}
}

func TestContainerNameDeterministic(t *testing.T) {
	first := ContainerName("team-rocket", "httpd:latest")
	second := ContainerName("team-rocket", "httpd:latest")
	if first != second {
		t.Fatalf("Name not stable: %q vs %q", first, second)
	}
}

func TestContainerNameDivergesAcrossOwners(t *testing.T) {
	seen := make(map[string]string)
	owners := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	for _, owner := range owners {
		name := ContainerName(owner, "httpd:latest")
		if prev, ok := seen[name]; ok {
			t.Fatalf("Owners %q and %q collide on name %q", prev, owner, name)
		}
		seen[name] = owner
	}
}
