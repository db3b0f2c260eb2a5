// Package domain models French fuel station price data published by the
// roulez-eco open-data service.
//
// # Data Source
//
// The annual dump (https://donnees.roulez-eco.fr/opendata/annee/<year>) is a
// single XML document, usually declared as ISO-8859-1. Each child of the root
// element is one point of sale ("pdv"):
//
//	<pdv id="1000001" latitude="4620100" longitude="519800" cp="01000" pop="R">
//	  <adresse>596 AVENUE DE TREVOUX</adresse>
//	  <ville>SAINT-DENIS-LèS-BOURG</ville>
//	  <horaires automate-24-24="1">
//	    <jour id="1" nom="Lundi" ferme="">
//	      <horaire ouverture="06.00" fermeture="21.00"/>
//	    </jour>
//	  </horaires>
//	  <prix nom="Gazole" id="1" maj="2023-01-02T07:53:26" valeur="1.872"/>
//	</pdv>
//
// Station names are not part of the dump. They are scraped one station at a
// time from the prix-carburants.gouv.fr map popup, whose HTML body carries the
// name in its first <strong> element.
//
// # Feed Conventions
//
// Coordinates ("PTV_GEODECIMAL"):
//
//	Longitude is degrees * 100000: "519800" = 5.198.
//	Latitude is degrees * 10000 for 6 integer digits ("462010" = 46.201) and
//	degrees * 100000 for 7 integer digits ("4620100" = 46.201).
//	Some records carry a fractional tail ("4584829.0858556"); it is kept
//	through the division and rounded away at 5 decimals.
//	Out-of-range results are replaced by the 0 sentinel. See [DecodeCoordinate].
//
// Opening hours:
//
//	<jour id> numbers days 1 (Monday) through 7 (Sunday); they become weekday
//	indexes 0 through 6. Times use a dot separator ("06.00") and are rendered
//	with a colon ("06:00"). A day is closed when ferme="1" or when it has no
//	<horaire> child. The automate-24-24 attribute on <horaires> marks an
//	unattended 24/7 pump.
//
// Prices:
//
//	Each <prix> is one update event: fuel label (nom), price in euros (valeur)
//	and update timestamp (maj, "2006-01-02T15:04:05"). Events are grouped per
//	fuel and per calendar day; the last event of a day wins.
//
// Fuel labels:
//
//	Gazole, SP95, E85, E10, SP98 are the labels in use. GPLc and any other
//	label are passed through unchanged.
//
// # Densification
//
// The dashboard expects one price per day over a fixed window. [Densify] walks
// the window oldest first and forward-fills gaps, using 0 before the first
// price seen in the window.
package domain
