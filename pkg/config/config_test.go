package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	if !cfg.IsFeatureEnabled(FeatFold) || !cfg.IsFeatureEnabled(FeatPruneBranches) {
		t.Error("optimizations should default on")
	}
	if !cfg.IsWarningEnabled(WarnUninit) {
		t.Error("uninit warning should default on")
	}
}

func TestSetOptimize(t *testing.T) {
	cfg := NewConfig()
	cfg.SetOptimize(false)
	for i := Feature(0); i < FeatCount; i++ {
		if cfg.IsFeatureEnabled(i) {
			t.Errorf("feature %q still enabled after SetOptimize(false)", cfg.Features[i].Name)
		}
	}
}

func TestNameMaps(t *testing.T) {
	cfg := NewConfig()
	if ft, ok := cfg.FeatureMap["fold"]; !ok || ft != FeatFold {
		t.Errorf("FeatureMap[fold] = %v, %v", ft, ok)
	}
	if wt, ok := cfg.WarningMap["uninit"]; !ok || wt != WarnUninit {
		t.Errorf("WarningMap[uninit] = %v, %v", wt, ok)
	}
}
