// Package seed loads initial accounts from a YAML file.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/placement-api/internal/models"
)

// File mirrors the YAML layout.
type File struct {
	Students        []Student        `yaml:"students"`
	Representatives []Representative `yaml:"representatives"`
	Staff           []Staff          `yaml:"staff"`
}

type Student struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Password    string `yaml:"password"`
	YearOfStudy int    `yaml:"year"`
	Major       string `yaml:"major"`
}

type Representative struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Password    string `yaml:"password"`
	CompanyName string `yaml:"company"`
	Department  string `yaml:"department"`
	Position    string `yaml:"position"`
	Approved    bool   `yaml:"approved"`
}

type Staff struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Password   string `yaml:"password"`
	Department string `yaml:"department"`
}

// Hasher turns a plain password into its stored hash.
type Hasher func(password string) (string, error)

// AccountLookup returns the role of the account already holding id, if any.
// Ids are unique across every account kind.
type AccountLookup func(ctx context.Context, id string) (role models.UserRole, found bool, err error)

// LoadFile reads and parses path.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML seed content, rejecting unknown keys.
func Parse(raw []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) validate() error {
	seen := make(map[string]struct{})
	check := func(kind, id, name, password string) error {
		if id == "" || name == "" || password == "" {
			return fmt.Errorf("seed %s %q: id, name and password are required", kind, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("seed %s %q: duplicate id", kind, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	var errs []error
	for _, s := range f.Students {
		if err := check("student", s.ID, s.Name, s.Password); err != nil {
			errs = append(errs, err)
			continue
		}
		if s.YearOfStudy < 1 || s.YearOfStudy > 4 {
			errs = append(errs, fmt.Errorf("seed student %q: year must be between 1 and 4", s.ID))
		}
		if !models.IsKnownMajor(s.Major) {
			errs = append(errs, fmt.Errorf("seed student %q: unknown major %q", s.ID, s.Major))
		}
	}
	for _, r := range f.Representatives {
		if err := check("representative", r.ID, r.Name, r.Password); err != nil {
			errs = append(errs, err)
			continue
		}
		if r.CompanyName == "" {
			errs = append(errs, fmt.Errorf("seed representative %q: company is required", r.ID))
		}
	}
	for _, s := range f.Staff {
		if err := check("staff", s.ID, s.Name, s.Password); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Accounts hashes passwords and returns the accounts that lookup does not know yet.
func (f *File) Accounts(ctx context.Context, hash Hasher, exists AccountLookup) (models.ChangeSet, error) {
	var changes models.ChangeSet
	skip := func(role models.UserRole, id string) (bool, error) {
		if exists == nil {
			return false, nil
		}
		held, found, err := exists(ctx, id)
		if err != nil {
			return false, err
		}
		if found && held != role {
			return false, fmt.Errorf("seed %s %q: id already used by a %s account", strings.ToLower(string(role)), id, strings.ToLower(string(held)))
		}
		return found, nil
	}

	for _, s := range f.Students {
		found, err := skip(models.RoleStudent, s.ID)
		if err != nil {
			return models.ChangeSet{}, err
		}
		if found {
			continue
		}
		hashed, err := hash(s.Password)
		if err != nil {
			return models.ChangeSet{}, fmt.Errorf("hash password for %s: %w", s.ID, err)
		}
		changes.Students = append(changes.Students, models.Student{
			ID:             s.ID,
			Name:           s.Name,
			YearOfStudy:    s.YearOfStudy,
			Major:          s.Major,
			PasswordHash:   hashed,
			ApplicationIDs: []string{},
		})
	}
	for _, r := range f.Representatives {
		found, err := skip(models.RoleRepresentative, r.ID)
		if err != nil {
			return models.ChangeSet{}, err
		}
		if found {
			continue
		}
		hashed, err := hash(r.Password)
		if err != nil {
			return models.ChangeSet{}, fmt.Errorf("hash password for %s: %w", r.ID, err)
		}
		changes.Representatives = append(changes.Representatives, models.CompanyRepresentative{
			ID:            r.ID,
			Name:          r.Name,
			CompanyName:   r.CompanyName,
			Department:    r.Department,
			Position:      r.Position,
			Approved:      r.Approved,
			PasswordHash:  hashed,
			InternshipIDs: []string{},
		})
	}
	for _, s := range f.Staff {
		found, err := skip(models.RoleStaff, s.ID)
		if err != nil {
			return models.ChangeSet{}, err
		}
		if found {
			continue
		}
		hashed, err := hash(s.Password)
		if err != nil {
			return models.ChangeSet{}, fmt.Errorf("hash password for %s: %w", s.ID, err)
		}
		changes.Staff = append(changes.Staff, models.CareerCenterStaff{
			ID:           s.ID,
			Name:         s.Name,
			Department:   s.Department,
			PasswordHash: hashed,
		})
	}
	return changes, nil
}
