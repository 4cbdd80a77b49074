package storage

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

const (
	FoodDir  = "food"
	StoreDir = "store"
)

func FoodName(group int64) string   { return fmt.Sprintf("%d_food.jpg", group) }
func FoodAIName(group int64) string { return fmt.Sprintf("%d_food_AI.jpg", group) }
func StoreName(group int64, i int) string {
	return fmt.Sprintf("%d_store_%d.jpg", group, i)
}

func FoodPath(group int64) string   { return path.Join(FoodDir, FoodName(group)) }
func FoodAIPath(group int64) string { return path.Join(FoodDir, FoodAIName(group)) }
func StorePath(group int64, i int) string {
	return path.Join(StoreDir, StoreName(group, i))
}

// GroupOf extracts N from a file named N_<suffix>.jpg.
func GroupOf(name string) (int64, bool) {
	if !strings.HasSuffix(strings.ToLower(name), ".jpg") {
		return 0, false
	}
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		return 0, false
	}
	n, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// MaxGroup is the highest group number found in the food and store
// directories, or 0 when there is none.
func MaxGroup(fs FileStorage) (int64, error) {
	var maxGroup int64
	for _, dir := range []string{FoodDir, StoreDir} {
		names, err := fs.List(dir)
		if err != nil {
			return 0, err
		}
		for _, name := range names {
			if n, ok := GroupOf(name); ok && n > maxGroup {
				maxGroup = n
			}
		}
	}
	return maxGroup, nil
}

// LatestFoodAIGroup returns the highest N that has an N_food_AI.jpg.
func LatestFoodAIGroup(fs FileStorage) (int64, bool, error) {
	names, err := fs.List(FoodDir)
	if err != nil {
		return 0, false, err
	}

	var (
		latest int64
		found  bool
	)
	for _, name := range names {
		n, ok := GroupOf(name)
		if !ok || name != FoodAIName(n) {
			continue
		}
		if !found || n > latest {
			latest, found = n, true
		}
	}
	return latest, found, nil
}

// StoreFiles lists the N_store_*.jpg names of a group in sorted order.
func StoreFiles(fs FileStorage, group int64) ([]string, error) {
	names, err := fs.List(StoreDir)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%d_store_", group)

	var files []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(strings.ToLower(name), ".jpg") {
			files = append(files, name)
		}
	}
	return files, nil
}

// PublicURL is the address under which the static /images route serves a
// stored file.
func PublicURL(baseURL, subdir, filename string) string {
	return strings.TrimRight(baseURL, "/") + "/images/" + subdir + "/" + filename
}
