package network

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/formnet/core"
)

// Islands
const (
	IslandTenerife      = "Tenerife"
	IslandGranCanaria   = "Gran Canaria"
	IslandLanzarote     = "Lanzarote"
	IslandLaPalma       = "La Palma"
	IslandLaGomera      = "La Gomera"
	IslandElHierro      = "El Hierro"
	IslandFuerteventura = "Fuerteventura"
)

// Center types
const (
	CenterCIFP = "CIFP"
	CenterIES  = "IES"
)

var (
	Islands = []string{
		IslandTenerife, IslandGranCanaria, IslandLanzarote, IslandLaPalma,
		IslandLaGomera, IslandElHierro, IslandFuerteventura,
	}
	CenterTypes = []string{CenterCIFP, CenterIES}
)

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func IsValidIsland(island string) bool { return contains(Islands, island) }

func IsValidCenterType(typ string) bool { return contains(CenterTypes, typ) }

type (
	Subnet struct {
		ID             string    `json:"id"`
		Name           string    `json:"name"`
		Island         string    `json:"island"`
		CIFPID         string    `json:"cifp_id"`
		AcademicYearID string    `json:"academic_year_id"`
		IsActive       bool      `json:"is_active"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}

	Center struct {
		ID             string    `json:"id"`
		Code           string    `json:"code"`
		Name           string    `json:"name"`
		Type           string    `json:"type"`
		Island         string    `json:"island"`
		SubnetID       string    `json:"subnet_id,omitempty"`
		AcademicYearID string    `json:"academic_year_id"`
		IsActive       bool      `json:"is_active"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}

	// Family is a professional family (vocational training branch).
	Family struct {
		ID             string    `json:"id"`
		Code           string    `json:"code"`
		Name           string    `json:"name"`
		AcademicYearID string    `json:"academic_year_id"`
		IsActive       bool      `json:"is_active"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}
)

type (
	NewSubnet struct {
		Name   string `json:"name" validate:"required,notblank"`
		Island string `json:"island" validate:"required,island"`
		CIFPID string `json:"cifp_id"`
	}

	NewCenter struct {
		Code     string `json:"code" validate:"required,notblank"`
		Name     string `json:"name" validate:"required,notblank"`
		Type     string `json:"type" validate:"required,centertype"`
		Island   string `json:"island" validate:"required,island"`
		SubnetID string `json:"subnet_id"`
	}

	NewFamily struct {
		Code string `json:"code" validate:"required,notblank"`
		Name string `json:"name" validate:"required,notblank"`
	}
)

func (ns *NewSubnet) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Island = core.CleanString(ns.Island)
	ns.CIFPID = core.CleanString(ns.CIFPID)
	return validate.Struct(ns)
}

func (ns NewSubnet) Subnet(yearID string, now time.Time) Subnet {
	return Subnet{
		Name:           ns.Name,
		Island:         ns.Island,
		CIFPID:         ns.CIFPID,
		AcademicYearID: yearID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (nc *NewCenter) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Type = core.CleanString(nc.Type)
	nc.Island = core.CleanString(nc.Island)
	nc.SubnetID = core.CleanString(nc.SubnetID)
	return validate.Struct(nc)
}

func (nc NewCenter) Center(yearID string, now time.Time) Center {
	return Center{
		Code:           nc.Code,
		Name:           nc.Name,
		Type:           nc.Type,
		Island:         nc.Island,
		SubnetID:       nc.SubnetID,
		AcademicYearID: yearID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (nf *NewFamily) Validate(validate *validator.Validate) error {
	nf.Code = core.CleanString(nf.Code)
	nf.Name = core.CleanString(nf.Name)
	return validate.Struct(nf)
}

func (nf NewFamily) Family(yearID string, now time.Time) Family {
	return Family{
		Code:           nf.Code,
		Name:           nf.Name,
		AcademicYearID: yearID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
