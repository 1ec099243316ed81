package main

import "github.com/duynhne/wanderlust/internal/core/domain"

func unsplash(photo string) domain.Image {
	return domain.Image{
		URL:      "https://images.unsplash.com/" + photo + "?auto=format&fit=crop&w=800&q=60",
		Filename: "listingimage",
	}
}

var sampleListings = []domain.Listing{
	{
		Title:       "Cozy Beachfront Cottage",
		Description: "Escape to this charming beachfront cottage for a relaxing getaway. Enjoy stunning ocean views and easy access to the beach.",
		Image:       unsplash("photo-1552733407-5d5c46c3bb3b"),
		Price:       1500,
		Location:    "Malibu",
		Country:     "United States",
		Zip:         "90265",
		Category:    domain.CategoryBeach,
	},
	{
		Title:       "Modern Loft in Downtown",
		Description: "Stay in the heart of the city in this stylish loft apartment. Perfect for urban explorers!",
		Image:       unsplash("photo-1501785888041-af3ef285b470"),
		Price:       1200,
		Location:    "New York City",
		Country:     "United States",
		Zip:         "10001",
		Category:    domain.CategoryIconicCities,
	},
	{
		Title:       "Mountain Retreat",
		Description: "Unplug and unwind in this peaceful mountain cabin. Surrounded by nature, it's a perfect place to recharge.",
		Image:       unsplash("photo-1571896349842-33c89424de2d"),
		Price:       1000,
		Location:    "Aspen",
		Country:     "United States",
		Zip:         "81611",
		Category:    domain.CategoryMountains,
	},
	{
		Title:       "Historic Villa in Tuscany",
		Description: "Experience the charm of Tuscany in this beautifully restored villa. Explore the rolling hills and vineyards.",
		Image:       unsplash("photo-1566073771259-6a8506099945"),
		Price:       2500,
		Location:    "Florence",
		Country:     "Italy",
		Category:    domain.CategoryFarms,
	},
	{
		Title:       "Secluded Treehouse Getaway",
		Description: "Live among the treetops in this unique treehouse retreat. A true nature lover's paradise.",
		Image:       unsplash("photo-1488462237308-ecaa28b729d7"),
		Price:       800,
		Location:    "Portland",
		Country:     "United States",
		Zip:         "97201",
		Category:    domain.CategoryCamping,
	},
	{
		Title:       "Beachfront Paradise",
		Description: "Step out of your door onto the sandy beach. This beachfront condo offers the ultimate relaxation.",
		Image:       unsplash("photo-1571003123894-1f0594d2b5d9"),
		Price:       2000,
		Location:    "Cancun",
		Country:     "Mexico",
		Category:    domain.CategoryPools,
	},
	{
		Title:       "Castle in the Highlands",
		Description: "Live like royalty in a restored highland castle with sweeping views over the glen.",
		Image:       unsplash("photo-1585543805890-6051f7829f98"),
		Price:       4000,
		Location:    "Scottish Highlands",
		Country:     "United Kingdom",
		Category:    domain.CategoryCastles,
	},
	{
		Title:       "Arctic Glass Igloo",
		Description: "Watch the northern lights from a heated glass igloo deep in Lapland.",
		Image:       unsplash("photo-1531366936337-7c912a4589a7"),
		Price:       3000,
		Location:    "Rovaniemi",
		Country:     "Finland",
		Category:    domain.CategoryArctic,
	},
	{
		Title:       "Private Room in a Shared Flat",
		Description: "A bright private room with a shared kitchen, close to the old town and its cafes.",
		Image:       unsplash("photo-1505691938895-1758d7feb511"),
		Price:       300,
		Location:    "Prague",
		Country:     "Czech Republic",
		Category:    domain.CategoryRooms,
	},
	{
		Title:       "Lakeside Lounge House",
		Description: "An open-plan house with a fireplace lounge and a deck over the lake.",
		Image:       unsplash("photo-1499793983690-e29da59ef1c2"),
		Price:       1800,
		Location:    "Lake Como",
		Country:     "Italy",
		Category:    domain.CategoryLounge,
	},
}
